package entity

import "errors"

// Business-rule errors surfaced by the engine. These are expected, frequent
// outcomes of normal operation, not defects; they are never retried
// internally. Wrap with fmt.Errorf("%w: ...") for detail and match with
// errors.Is at the boundary.
var (
	// ErrNotFound indicates the instance, work item or definition does not
	// exist for the tenant.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyPending indicates the target record already has a pending
	// approval instance.
	ErrAlreadyPending = errors.New("approval already pending for target")

	// ErrInvalidProcess indicates the process definition is missing,
	// inactive, or has no usable steps.
	ErrInvalidProcess = errors.New("invalid process definition")

	// ErrNotPending indicates the instance or work item is no longer pending.
	ErrNotPending = errors.New("not pending")

	// ErrNotAssignedApprover indicates the actor is not the work item's
	// current approver.
	ErrNotAssignedApprover = errors.New("actor is not the assigned approver")

	// ErrNotSubmitter indicates a recall attempt by someone other than the
	// original submitter.
	ErrNotSubmitter = errors.New("actor is not the submitter")

	// ErrNotAuthorized indicates the actor may not perform the operation
	// (reassignment by a non-approver non-admin).
	ErrNotAuthorized = errors.New("actor is not authorized")

	// ErrConflict indicates a concurrent modification was detected; callers
	// should refetch and retry.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrInvalidCursor indicates an unparseable pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidAction indicates a decide call with an unknown action.
	ErrInvalidAction = errors.New("invalid action")
)
