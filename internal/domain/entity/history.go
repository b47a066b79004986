package entity

import "time"

// ApprovalHistory is the append-only audit trail of an instance: one row per
// state-changing action, never mutated or deleted. The engine writes it but
// never reads it for decision-making.
type ApprovalHistory struct {
	ID         int64     `json:"id"`
	TenantID   string    `json:"tenant_id"`
	InstanceID int64     `json:"instance_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	StepNumber *int      `json:"step_number,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
