package port

import (
	"context"
	"time"

	"github.com/crmforge/approval-engine/internal/domain/entity"
)

// Page carries keyset-pagination parameters: rows strictly older than
// (Before, BeforeID) in creation order, newest first. Zero Before means
// "from the top".
type Page struct {
	Limit    int
	Before   time.Time
	BeforeID int64
}

// InstanceRepository defines persistence operations for ApprovalInstance
type InstanceRepository interface {
	Create(ctx context.Context, instance *entity.ApprovalInstance) error
	GetByID(ctx context.Context, tenantID string, id int64) (*entity.ApprovalInstance, error)
	// GetPendingByTarget returns the pending instance for a target record, or
	// nil when none exists.
	GetPendingByTarget(ctx context.Context, tenantID, objectType, recordID string) (*entity.ApprovalInstance, error)
	// AdvanceStep moves current_step forward; the row must still be pending.
	AdvanceStep(ctx context.Context, id int64, step int) error
	// Complete performs the terminal transition: status, completed_by and
	// completed_at are written together, exactly once.
	Complete(ctx context.Context, id int64, status, completedBy string, completedAt time.Time) error
	List(ctx context.Context, tenantID string, filter entity.InstanceFilter, page Page) ([]*entity.ApprovalInstance, error)
}

// WorkItemRepository defines persistence operations for ApprovalWorkItem
type WorkItemRepository interface {
	// CreateBatch fans out one item per approver when a step activates.
	CreateBatch(ctx context.Context, items []*entity.ApprovalWorkItem) error
	GetByID(ctx context.Context, tenantID string, id int64) (*entity.ApprovalWorkItem, error)
	GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalWorkItem, error)
	// CountPending returns the number of still-pending items for one step of
	// one instance. Zero means the step is fully resolved.
	CountPending(ctx context.Context, instanceID int64, stepNumber int) (int, error)
	// Complete records a decision on a pending item. Returns
	// entity.ErrNotPending if the row was decided concurrently.
	Complete(ctx context.Context, id int64, status, comment string, completedAt time.Time) error
	// Reassign swaps the approver in place. setOriginal preserves the first
	// assignee: only the first reassignment writes original_approver_id.
	Reassign(ctx context.Context, id int64, newApproverID, reassignedBy, comment string, setOriginal bool, reassignedAt time.Time) error
	// WithdrawPending moves every still-pending item of an instance to
	// WITHDRAWN (recall). Decided items are left untouched.
	WithdrawPending(ctx context.Context, instanceID int64, completedAt time.Time) error
	ListByApprover(ctx context.Context, tenantID, approverID string, pendingOnly bool, page Page) ([]*entity.ApprovalWorkItem, error)
}

// HistoryRepository defines persistence operations for ApprovalHistory.
// The table is append-only: there is no update or delete.
type HistoryRepository interface {
	Create(ctx context.Context, h *entity.ApprovalHistory) error
	// GetByInstanceID returns history rows in chronological ascending order.
	GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalHistory, error)
}

// DefinitionStore provides read access to approval process definitions.
// Authoring lives outside this service.
type DefinitionStore interface {
	GetByID(ctx context.Context, tenantID string, id int64) (*entity.ProcessDefinition, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
