package entity

import "time"

// ApprovalWorkItem is one approver's task within one step of one instance.
// Items are created in bulk when a step activates and never outside the
// engine. ApproverID is the only mutable identity field: reassignment swaps
// it in place while the item stays PENDING; OriginalApproverID preserves the
// first assignee for provenance and is set on the first reassignment only.
type ApprovalWorkItem struct {
	ID                 int64      `json:"id"`
	TenantID           string     `json:"tenant_id"`
	InstanceID         int64      `json:"instance_id"`
	StepNumber         int        `json:"step_number"`
	ApproverID         string     `json:"approver_id"`
	Status             string     `json:"status"`
	AssignedAt         time.Time  `json:"assigned_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Comment            string     `json:"comment,omitempty"`
	OriginalApproverID string     `json:"original_approver_id,omitempty"`
	ReassignedBy       string     `json:"reassigned_by,omitempty"`
	ReassignedAt       *time.Time `json:"reassigned_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// IsPending reports whether the item is still awaiting a decision.
func (w *ApprovalWorkItem) IsPending() bool {
	return w.Status == WorkItemStatusPending
}
