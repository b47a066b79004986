package workflow

// State represents a lifecycle state of an approval instance or work item
type State string

const (
	// Shared by both lifecycles
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateRejected State = "REJECTED"

	// Instance-only
	StateRecalled State = "RECALLED"

	// Work-item-only: withdrawn from play by a recall, no decision recorded
	StateWithdrawn State = "WITHDRAWN"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateApproved:  true,
	StateRejected:  true,
	StateRecalled:  true,
	StateWithdrawn: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return s != StatePending && validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
