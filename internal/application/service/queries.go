package service

import (
	"context"
	"fmt"

	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
)

// Read models decorate the persisted rows with display names. Decoration is
// a presentation concern only; nothing here participates in engine decisions.

// InstanceView is an ApprovalInstance joined with display fields.
type InstanceView struct {
	entity.ApprovalInstance
	SubmitterName   string `json:"submitter_name,omitempty"`
	CompletedByName string `json:"completed_by_name,omitempty"`
}

// WorkItemView is an ApprovalWorkItem joined with display fields.
type WorkItemView struct {
	entity.ApprovalWorkItem
	ApproverName string `json:"approver_name,omitempty"`
}

// HistoryView is an ApprovalHistory row joined with display fields.
type HistoryView struct {
	entity.ApprovalHistory
	ActorName string `json:"actor_name,omitempty"`
}

// InstancePage is one page of instances, newest first.
type InstancePage struct {
	Items      []*InstanceView `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

// WorkItemPage is one page of work items, newest first.
type WorkItemPage struct {
	Items      []*WorkItemView `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

// GetInstance retrieves one instance by id
func (e *approvalEngine) GetInstance(ctx context.Context, tenantID string, id int64) (*InstanceView, error) {
	instance, err := e.loadInstance(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return e.instanceView(ctx, instance), nil
}

// ListInstances retrieves a filtered, cursor-paginated page of instances
func (e *approvalEngine) ListInstances(ctx context.Context, tenantID string, filter entity.InstanceFilter, limit int, cursor string) (*InstancePage, error) {
	page := port.Page{Limit: clampLimit(limit) + 1}
	if cursor != "" {
		before, beforeID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		page.Before, page.BeforeID = before, beforeID
	}

	rows, err := e.instances.List(ctx, tenantID, filter, page)
	if err != nil {
		e.logger.Error("Failed to list instances", "error", err, "tenant_id", tenantID)
		return nil, err
	}

	result := &InstancePage{Items: make([]*InstanceView, 0, len(rows))}
	if len(rows) == page.Limit {
		result.HasMore = true
		rows = rows[:len(rows)-1]
	}
	for _, row := range rows {
		result.Items = append(result.Items, e.instanceView(ctx, row))
	}
	if result.HasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		result.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return result, nil
}

// GetWorkItem retrieves one work item by id
func (e *approvalEngine) GetWorkItem(ctx context.Context, tenantID string, id int64) (*WorkItemView, error) {
	item, err := e.loadWorkItem(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return e.workItemView(ctx, item), nil
}

// ListWorkItems retrieves an approver's work items, pending-only by default
func (e *approvalEngine) ListWorkItems(ctx context.Context, tenantID, approverID string, pendingOnly bool, limit int, cursor string) (*WorkItemPage, error) {
	page := port.Page{Limit: clampLimit(limit) + 1}
	if cursor != "" {
		before, beforeID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		page.Before, page.BeforeID = before, beforeID
	}

	rows, err := e.workItems.ListByApprover(ctx, tenantID, approverID, pendingOnly, page)
	if err != nil {
		e.logger.Error("Failed to list work items", "error", err, "tenant_id", tenantID, "approver_id", approverID)
		return nil, err
	}

	result := &WorkItemPage{Items: make([]*WorkItemView, 0, len(rows))}
	if len(rows) == page.Limit {
		result.HasMore = true
		rows = rows[:len(rows)-1]
	}
	for _, row := range rows {
		result.Items = append(result.Items, e.workItemView(ctx, row))
	}
	if result.HasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		result.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return result, nil
}

// GetHistory retrieves the audit trail of an instance, oldest first
func (e *approvalEngine) GetHistory(ctx context.Context, tenantID string, instanceID int64) ([]*HistoryView, error) {
	// Existence check keeps NotFound distinct from an empty trail.
	if _, err := e.loadInstance(ctx, tenantID, instanceID); err != nil {
		return nil, err
	}

	rows, err := e.history.GetByInstanceID(ctx, instanceID)
	if err != nil {
		e.logger.Error("Failed to get history", "error", err, "instance_id", instanceID)
		return nil, fmt.Errorf("get history: %w", err)
	}

	views := make([]*HistoryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, &HistoryView{
			ApprovalHistory: *row,
			ActorName:       e.displayName(ctx, row.TenantID, row.ActorID),
		})
	}
	return views, nil
}

func (e *approvalEngine) instanceView(ctx context.Context, instance *entity.ApprovalInstance) *InstanceView {
	view := &InstanceView{
		ApprovalInstance: *instance,
		SubmitterName:    e.displayName(ctx, instance.TenantID, instance.SubmittedBy),
	}
	if instance.CompletedBy != "" {
		view.CompletedByName = e.displayName(ctx, instance.TenantID, instance.CompletedBy)
	}
	return view
}

func (e *approvalEngine) workItemView(ctx context.Context, item *entity.ApprovalWorkItem) *WorkItemView {
	return &WorkItemView{
		ApprovalWorkItem: *item,
		ApproverName:     e.displayName(ctx, item.TenantID, item.ApproverID),
	}
}

func (e *approvalEngine) displayName(ctx context.Context, tenantID, userID string) string {
	if e.directory == nil || userID == "" {
		return userID
	}
	return e.directory.DisplayName(ctx, tenantID, userID)
}
