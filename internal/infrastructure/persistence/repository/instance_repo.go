package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
	"go.uber.org/zap"
)

// InstanceRepository implements port.InstanceRepository
type InstanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db *sql.DB, logger *zap.Logger) port.InstanceRepository {
	return &InstanceRepository{
		db:     db,
		logger: logger,
	}
}

const instanceColumns = `
	id, tenant_id, process_definition_id, process_name,
	target_object_type, target_record_id, status, current_step,
	steps_json, submitted_by, submitted_at, completed_by, completed_at,
	created_at, updated_at
`

// Create inserts a new approval instance
func (r *InstanceRepository) Create(ctx context.Context, instance *entity.ApprovalInstance) error {
	query := `
		INSERT INTO approval_instances (
			tenant_id, process_definition_id, process_name,
			target_object_type, target_record_id, status, current_step,
			steps_json, submitted_by, submitted_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		instance.TenantID,
		instance.ProcessDefinitionID,
		instance.ProcessName,
		instance.TargetObjectType,
		instance.TargetRecordID,
		instance.Status,
		instance.CurrentStep,
		instance.StepsJSON,
		instance.SubmittedBy,
		instance.SubmittedAt,
		now,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create instance", zap.Error(err))
		return fmt.Errorf("failed to create instance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	instance.ID = id
	instance.CreatedAt = now
	instance.UpdatedAt = now
	return nil
}

// GetByID retrieves an approval instance by ID within a tenant
func (r *InstanceRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.ApprovalInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM approval_instances WHERE tenant_id = ? AND id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id)
	instance, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get instance by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return instance, nil
}

// GetPendingByTarget retrieves the pending instance for a target record, if any
func (r *InstanceRepository) GetPendingByTarget(ctx context.Context, tenantID, objectType, recordID string) (*entity.ApprovalInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM approval_instances
		WHERE tenant_id = ? AND target_object_type = ? AND target_record_id = ? AND status = ?
	`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, objectType, recordID, entity.InstanceStatusPending)
	instance, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get pending instance by target",
			zap.String("target_object_type", objectType),
			zap.String("target_record_id", recordID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get pending instance: %w", err)
	}
	return instance, nil
}

// AdvanceStep moves current_step forward. The status guard makes the update a
// no-op on an instance that terminated concurrently.
func (r *InstanceRepository) AdvanceStep(ctx context.Context, id int64, step int) error {
	query := `
		UPDATE approval_instances
		SET current_step = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, step, time.Now(), id, entity.InstanceStatusPending)
	if err != nil {
		r.logger.Error("Failed to advance step", zap.Int64("id", id), zap.Int("step", step), zap.Error(err))
		return fmt.Errorf("failed to advance step: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: instance %d is no longer pending", entity.ErrConflict, id)
	}
	return nil
}

// Complete performs the terminal transition exactly once
func (r *InstanceRepository) Complete(ctx context.Context, id int64, status, completedBy string, completedAt time.Time) error {
	query := `
		UPDATE approval_instances
		SET status = ?, completed_by = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		status, completedBy, completedAt, completedAt, id, entity.InstanceStatusPending)
	if err != nil {
		r.logger.Error("Failed to complete instance", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to complete instance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: instance %d is no longer pending", entity.ErrConflict, id)
	}
	return nil
}

// List retrieves instances newest first with keyset pagination
func (r *InstanceRepository) List(ctx context.Context, tenantID string, filter entity.InstanceFilter, page port.Page) ([]*entity.ApprovalInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM approval_instances WHERE tenant_id = ?`
	args := []interface{}{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.TargetObjectType != "" {
		query += ` AND target_object_type = ?`
		args = append(args, filter.TargetObjectType)
	}
	if filter.TargetRecordID != "" {
		query += ` AND target_record_id = ?`
		args = append(args, filter.TargetRecordID)
	}
	if filter.SubmittedBy != "" {
		query += ` AND submitted_by = ?`
		args = append(args, filter.SubmittedBy)
	}
	if !page.Before.IsZero() {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, page.Before, page.Before, page.BeforeID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, page.Limit)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list instances", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*entity.ApprovalInstance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(row rowScanner) (*entity.ApprovalInstance, error) {
	var instance entity.ApprovalInstance
	var completedBy sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&instance.ID,
		&instance.TenantID,
		&instance.ProcessDefinitionID,
		&instance.ProcessName,
		&instance.TargetObjectType,
		&instance.TargetRecordID,
		&instance.Status,
		&instance.CurrentStep,
		&instance.StepsJSON,
		&instance.SubmittedBy,
		&instance.SubmittedAt,
		&completedBy,
		&completedAt,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedBy.Valid {
		instance.CompletedBy = completedBy.String
	}
	if completedAt.Valid {
		instance.CompletedAt = &completedAt.Time
	}
	return &instance, nil
}

// Verify interface compliance
var _ port.InstanceRepository = (*InstanceRepository)(nil)
