package workflow

// Lifecycle configurations for the two approval aggregates. The engine builds
// a machine at the aggregate's current state and fires the intended trigger
// before persisting anything, so an illegal transition fails before any write.

// Builders are constructed in init() rather than in the variable declarations:
// Configure validates states via an interface method call, which Go's
// initialization dependency analysis does not track, so validStates (state.go
// sorts after this file) would still be nil during package-variable init.
var instanceBuilder StateMachineBuilder

func init() {
	instanceBuilder = newInstanceBuilder()
	workItemBuilder = newWorkItemBuilder()
}

func newInstanceBuilder() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerRecall, StateRecalled)
	// Terminal states are configured with no transitions: completedAt/By are
	// set exactly once, at the terminal transition.
	b.Configure(StateApproved)
	b.Configure(StateRejected)
	b.Configure(StateRecalled)
	return b
}

// NewInstanceMachine returns a state machine for an approval instance at the
// given state.
func NewInstanceMachine(current State) StateMachine {
	return instanceBuilder.Build(current)
}

var workItemBuilder StateMachineBuilder

func newWorkItemBuilder() StateMachineBuilder {
	b := NewBuilder()
	// Reassignment is not a transition: the item stays PENDING under a new
	// approver, only bookkeeping fields change.
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerWithdraw, StateWithdrawn)
	b.Configure(StateApproved)
	b.Configure(StateRejected)
	b.Configure(StateWithdrawn)
	return b
}

// NewWorkItemMachine returns a state machine for a work item at the given
// state.
func NewWorkItemMachine(current State) StateMachine {
	return workItemBuilder.Build(current)
}
