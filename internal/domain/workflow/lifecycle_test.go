package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestInstanceLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{"approve pending", StatePending, TriggerApprove, StateApproved, false},
		{"reject pending", StatePending, TriggerReject, StateRejected, false},
		{"recall pending", StatePending, TriggerRecall, StateRecalled, false},
		{"withdraw not an instance trigger", StatePending, TriggerWithdraw, StatePending, true},
		{"approve approved", StateApproved, TriggerApprove, StateApproved, true},
		{"recall rejected", StateRejected, TriggerRecall, StateRejected, true},
		{"reject recalled", StateRecalled, TriggerReject, StateRecalled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewInstanceMachine(tt.from)
			err := m.Fire(context.Background(), tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
				}
			} else if err != nil {
				t.Errorf("Fire() unexpected error: %v", err)
			}
			if m.State() != tt.want {
				t.Errorf("State() = %v, want %v", m.State(), tt.want)
			}
		})
	}
}

func TestWorkItemLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{"approve pending", StatePending, TriggerApprove, StateApproved, false},
		{"reject pending", StatePending, TriggerReject, StateRejected, false},
		{"withdraw pending", StatePending, TriggerWithdraw, StateWithdrawn, false},
		{"recall not an item trigger", StatePending, TriggerRecall, StatePending, true},
		{"approve approved", StateApproved, TriggerApprove, StateApproved, true},
		{"withdraw rejected", StateRejected, TriggerWithdraw, StateRejected, true},
		{"approve withdrawn", StateWithdrawn, TriggerApprove, StateWithdrawn, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWorkItemMachine(tt.from)
			err := m.Fire(context.Background(), tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
				}
			} else if err != nil {
				t.Errorf("Fire() unexpected error: %v", err)
			}
			if m.State() != tt.want {
				t.Errorf("State() = %v, want %v", m.State(), tt.want)
			}
		})
	}
}
