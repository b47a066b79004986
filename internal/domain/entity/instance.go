package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// ApprovalInstance represents one approval attempt for one target record.
// The engine is the sole writer of Status and CurrentStep.
type ApprovalInstance struct {
	ID                  int64      `json:"id"`
	TenantID            string     `json:"tenant_id"`
	ProcessDefinitionID int64      `json:"process_definition_id"`
	ProcessName         string     `json:"process_name"`
	TargetObjectType    string     `json:"target_object_type"`
	TargetRecordID      string     `json:"target_record_id"`
	Status              string     `json:"status"`
	CurrentStep         int        `json:"current_step"`
	StepsJSON           string     `json:"-"`
	SubmittedBy         string     `json:"submitted_by"`
	SubmittedAt         time.Time  `json:"submitted_at"`
	CompletedBy         string     `json:"completed_by,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsPending reports whether the instance is still open for decisions.
func (i *ApprovalInstance) IsPending() bool {
	return i.Status == InstanceStatusPending
}

// Steps decodes the step list snapshotted onto the instance at submission.
// Advancement always reads this snapshot, never the live definition, so a
// definition edited mid-flight cannot re-route in-progress instances.
func (i *ApprovalInstance) Steps() ([]ProcessStep, error) {
	var steps []ProcessStep
	if err := json.Unmarshal([]byte(i.StepsJSON), &steps); err != nil {
		return nil, fmt.Errorf("decode steps snapshot for instance %d: %w", i.ID, err)
	}
	return steps, nil
}

// InstanceFilter narrows listInstances queries. Zero values mean "any".
type InstanceFilter struct {
	Status           string
	TargetObjectType string
	TargetRecordID   string
	SubmittedBy      string
}
