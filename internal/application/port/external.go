package port

import "context"

// Directory resolves user ids to display names for read models. Identity and
// role resolution proper happens upstream; this is display-only and never
// load-bearing for authorization.
type Directory interface {
	// DisplayName returns the display name for a user id, or the id itself
	// when unknown.
	DisplayName(ctx context.Context, tenantID, userID string) string
}

// Notifier announces workflow activity to approvers and submitters. Actual
// delivery transport (email, IM) lives outside this service.
type Notifier interface {
	// WorkItemAssigned announces a newly fanned-out work item.
	WorkItemAssigned(ctx context.Context, tenantID string, instanceID int64, stepNumber int, approverID string)

	// InstanceCompleted announces a terminal transition.
	InstanceCompleted(ctx context.Context, tenantID string, instanceID int64, status, completedBy string)
}
