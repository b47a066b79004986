package entity

import "time"

// ProcessDefinition is the versionless, read-only description of an approval
// process for a (tenant, target object type). Authoring lives outside this
// service; the engine only reads definitions at submission time and snapshots
// the step list onto the instance.
type ProcessDefinition struct {
	ID               int64         `json:"id"`
	TenantID         string        `json:"tenant_id"`
	Name             string        `json:"name"`
	TargetObjectType string        `json:"target_object_type"`
	IsActive         bool          `json:"is_active"`
	Steps            []ProcessStep `json:"steps"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ProcessStep is one ordered stage of a definition naming its required
// approvers. Approver ids are concrete user ids: role/queue resolution is a
// collaborator responsibility and has already happened by the time a
// definition reaches the engine.
type ProcessStep struct {
	Number      int      `json:"number"`
	Name        string   `json:"name,omitempty"`
	ApproverIDs []string `json:"approver_ids"`
}

// Eligible reports whether the definition can accept submissions: it must be
// active and have at least one step with at least one approver in step 1.
func (d *ProcessDefinition) Eligible() bool {
	return d.IsActive && len(d.Steps) > 0 && len(d.Steps[0].ApproverIDs) > 0
}
