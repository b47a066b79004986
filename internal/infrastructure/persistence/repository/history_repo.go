package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository. The table is
// append-only; there is deliberately no update or delete here.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit row
func (r *HistoryRepository) Create(ctx context.Context, h *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			tenant_id, instance_id, actor_id, action, step_number, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		h.TenantID,
		h.InstanceID,
		h.ActorID,
		h.Action,
		h.StepNumber,
		h.Comment,
		h.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history entry",
			zap.Int64("instance_id", h.InstanceID),
			zap.String("action", h.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

// GetByInstanceID retrieves the audit trail in chronological ascending order
func (r *HistoryRepository) GetByInstanceID(ctx context.Context, instanceID int64) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, tenant_id, instance_id, actor_id, action, step_number, comment, created_at
		FROM approval_history
		WHERE instance_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, instanceID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("instance_id", instanceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalHistory
	for rows.Next() {
		var h entity.ApprovalHistory
		var stepNumber sql.NullInt64
		var comment sql.NullString

		err := rows.Scan(
			&h.ID,
			&h.TenantID,
			&h.InstanceID,
			&h.ActorID,
			&h.Action,
			&stepNumber,
			&comment,
			&h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		if stepNumber.Valid {
			step := int(stepNumber.Int64)
			h.StepNumber = &step
		}
		h.Comment = comment.String
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
