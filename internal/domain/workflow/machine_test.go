package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateRecalled, true},
		{StateWithdrawn, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"withdrawn", StateWithdrawn, true},
		{"unknown", State("INVALID"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_PermitAndFire(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	m := b.Build(StatePending)

	if !m.CanFire(TriggerApprove) {
		t.Error("expected TriggerApprove to be fireable from PENDING")
	}
	if m.CanFire(TriggerRecall) {
		t.Error("did not expect TriggerRecall to be fireable from PENDING")
	}

	if err := m.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire(TriggerApprove) returned error: %v", err)
	}
	if m.State() != StateApproved {
		t.Errorf("State() = %v, want %v", m.State(), StateApproved)
	}
}

func TestBuilder_InvalidTransition(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).Permit(TriggerApprove, StateApproved)
	b.Configure(StateApproved)

	m := b.Build(StateApproved)

	err := m.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire from terminal state: got %v, want ErrInvalidTransition", err)
	}
	if m.State() != StateApproved {
		t.Errorf("state changed on failed transition: %v", m.State())
	}
}

func TestBuilder_GuardedTransition(t *testing.T) {
	allow := false
	b := NewBuilder()
	b.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool { return allow })

	m := b.Build(StatePending)

	err := m.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("guard should have blocked transition, got %v", err)
	}

	allow = true
	if err := m.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire with passing guard returned error: %v", err)
	}
	if m.State() != StateApproved {
		t.Errorf("State() = %v, want %v", m.State(), StateApproved)
	}
}

func TestBuilder_MachinesAreIndependent(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).Permit(TriggerReject, StateRejected)

	m1 := b.Build(StatePending)
	m2 := b.Build(StatePending)

	if err := m1.Fire(context.Background(), TriggerReject); err != nil {
		t.Fatalf("Fire returned error: %v", err)
	}
	if m2.State() != StatePending {
		t.Errorf("second machine affected by first: %v", m2.State())
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerRecall, StateRecalled)

	m := b.Build(StatePending)
	triggers := m.PermittedTriggers()
	if len(triggers) != 3 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 3", len(triggers))
	}

	m = b.Build(StateApproved)
	if len(m.PermittedTriggers()) != 0 {
		t.Errorf("expected no permitted triggers in a terminal state")
	}
}
