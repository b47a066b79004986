package event

// Type identifies the type of domain event
type Type string

const (
	TypeInstanceSubmitted  Type = "approval.submitted"
	TypeInstanceApproved   Type = "approval.approved"
	TypeInstanceRejected   Type = "approval.rejected"
	TypeInstanceRecalled   Type = "approval.recalled"
	TypeStepAdvanced       Type = "approval.step_advanced"
	TypeWorkItemReassigned Type = "approval.reassigned"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInstanceSubmitted,
		TypeInstanceApproved,
		TypeInstanceRejected,
		TypeInstanceRecalled,
		TypeStepAdvanced,
		TypeWorkItemReassigned:
		return true
	default:
		return false
	}
}
