package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
	"go.uber.org/zap"
)

// WorkItemRepository implements port.WorkItemRepository
type WorkItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkItemRepository creates a new work item repository
func NewWorkItemRepository(db *sql.DB, logger *zap.Logger) port.WorkItemRepository {
	return &WorkItemRepository{
		db:     db,
		logger: logger,
	}
}

const workItemColumns = `
	id, tenant_id, instance_id, step_number, approver_id, status,
	assigned_at, completed_at, comment, original_approver_id,
	reassigned_by, reassigned_at, created_at
`

// CreateBatch inserts one pending item per approver of an activating step
func (r *WorkItemRepository) CreateBatch(ctx context.Context, items []*entity.ApprovalWorkItem) error {
	query := `
		INSERT INTO approval_work_items (
			tenant_id, instance_id, step_number, approver_id, status,
			assigned_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	exec := getExecutor(ctx, r.db)
	now := time.Now()
	for _, item := range items {
		result, err := exec.ExecContext(ctx, query,
			item.TenantID,
			item.InstanceID,
			item.StepNumber,
			item.ApproverID,
			item.Status,
			item.AssignedAt,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to create work item",
				zap.Int64("instance_id", item.InstanceID),
				zap.String("approver_id", item.ApproverID),
				zap.Error(err))
			return fmt.Errorf("failed to create work item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
		item.CreatedAt = now
	}
	return nil
}

// GetByID retrieves a work item by ID within a tenant
func (r *WorkItemRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.ApprovalWorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM approval_work_items WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	item, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get work item by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	return item, nil
}

// GetByInstanceID retrieves all work items of an instance in creation order
func (r *WorkItemRepository) GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalWorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM approval_work_items WHERE instance_id = ? ORDER BY id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, instanceID)
	if err != nil {
		r.logger.Error("Failed to get work items by instance", zap.Int64("instance_id", instanceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get work items: %w", err)
	}
	defer rows.Close()

	return collectWorkItems(rows)
}

// CountPending counts the still-pending items of one step of one instance
func (r *WorkItemRepository) CountPending(ctx context.Context, instanceID int64, stepNumber int) (int, error) {
	query := `
		SELECT COUNT(*) FROM approval_work_items
		WHERE instance_id = ? AND step_number = ? AND status = ?
	`

	var count int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, instanceID, stepNumber, entity.WorkItemStatusPending).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count pending work items", zap.Int64("instance_id", instanceID), zap.Error(err))
		return 0, fmt.Errorf("failed to count pending work items: %w", err)
	}
	return count, nil
}

// Complete records a decision on a pending item. The status guard turns a
// concurrent double decision into ErrNotPending instead of a silent overwrite.
func (r *WorkItemRepository) Complete(ctx context.Context, id int64, status, comment string, completedAt time.Time) error {
	query := `
		UPDATE approval_work_items
		SET status = ?, comment = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		status, comment, completedAt, id, entity.WorkItemStatusPending)
	if err != nil {
		r.logger.Error("Failed to complete work item", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to complete work item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: work item %d is no longer pending", entity.ErrNotPending, id)
	}
	return nil
}

// Reassign swaps the approver of a pending item in place
func (r *WorkItemRepository) Reassign(ctx context.Context, id int64, newApproverID, reassignedBy, comment string, setOriginal bool, reassignedAt time.Time) error {
	query := `
		UPDATE approval_work_items
		SET approver_id = ?, reassigned_by = ?, reassigned_at = ?, comment = ?
		WHERE id = ? AND status = ?
	`
	if setOriginal {
		query = `
			UPDATE approval_work_items
			SET original_approver_id = approver_id, approver_id = ?, reassigned_by = ?, reassigned_at = ?, comment = ?
			WHERE id = ? AND status = ?
		`
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		newApproverID, reassignedBy, reassignedAt, comment, id, entity.WorkItemStatusPending)
	if err != nil {
		r.logger.Error("Failed to reassign work item", zap.Int64("id", id), zap.String("new_approver", newApproverID), zap.Error(err))
		return fmt.Errorf("failed to reassign work item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: work item %d is no longer pending", entity.ErrNotPending, id)
	}
	return nil
}

// WithdrawPending moves every still-pending item of an instance to WITHDRAWN.
// Decided items are left untouched.
func (r *WorkItemRepository) WithdrawPending(ctx context.Context, instanceID int64, completedAt time.Time) error {
	query := `
		UPDATE approval_work_items
		SET status = ?, completed_at = ?
		WHERE instance_id = ? AND status = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entity.WorkItemStatusWithdrawn, completedAt, instanceID, entity.WorkItemStatusPending)
	if err != nil {
		r.logger.Error("Failed to withdraw pending work items", zap.Int64("instance_id", instanceID), zap.Error(err))
		return fmt.Errorf("failed to withdraw pending work items: %w", err)
	}
	return nil
}

// ListByApprover retrieves an approver's items newest first with keyset pagination
func (r *WorkItemRepository) ListByApprover(ctx context.Context, tenantID, approverID string, pendingOnly bool, page port.Page) ([]*entity.ApprovalWorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM approval_work_items WHERE tenant_id = ? AND approver_id = ?`
	args := []interface{}{tenantID, approverID}

	if pendingOnly {
		query += ` AND status = ?`
		args = append(args, entity.WorkItemStatusPending)
	}
	if !page.Before.IsZero() {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, page.Before, page.Before, page.BeforeID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, page.Limit)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list work items", zap.String("approver_id", approverID), zap.Error(err))
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	return collectWorkItems(rows)
}

func collectWorkItems(rows *sql.Rows) ([]*entity.ApprovalWorkItem, error) {
	var items []*entity.ApprovalWorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanWorkItem(row rowScanner) (*entity.ApprovalWorkItem, error) {
	var item entity.ApprovalWorkItem
	var completedAt, reassignedAt sql.NullTime
	var comment, originalApprover, reassignedBy sql.NullString

	err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.InstanceID,
		&item.StepNumber,
		&item.ApproverID,
		&item.Status,
		&item.AssignedAt,
		&completedAt,
		&comment,
		&originalApprover,
		&reassignedBy,
		&reassignedAt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		item.CompletedAt = &completedAt.Time
	}
	if reassignedAt.Valid {
		item.ReassignedAt = &reassignedAt.Time
	}
	item.Comment = comment.String
	item.OriginalApproverID = originalApprover.String
	item.ReassignedBy = reassignedBy.String
	return &item, nil
}

// Verify interface compliance
var _ port.WorkItemRepository = (*WorkItemRepository)(nil)
