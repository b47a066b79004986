package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/crmforge/approval-engine/internal/application/port"
	"github.com/crmforge/approval-engine/internal/domain/entity"
	"go.uber.org/zap"
)

// DefinitionRepository implements port.DefinitionStore. Definitions are
// authored outside this service; the engine only reads them.
type DefinitionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDefinitionRepository creates a new definition repository
func NewDefinitionRepository(db *sql.DB, logger *zap.Logger) port.DefinitionStore {
	return &DefinitionRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a process definition by ID within a tenant
func (r *DefinitionRepository) GetByID(ctx context.Context, tenantID string, id int64) (*entity.ProcessDefinition, error) {
	query := `
		SELECT id, tenant_id, name, target_object_type, is_active, steps_json, created_at, updated_at
		FROM process_definitions
		WHERE tenant_id = ? AND id = ?
	`

	var def entity.ProcessDefinition
	var stepsJSON string

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, tenantID, id).Scan(
		&def.ID,
		&def.TenantID,
		&def.Name,
		&def.TargetObjectType,
		&def.IsActive,
		&stepsJSON,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: process definition %d", entity.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get process definition", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get process definition: %w", err)
	}

	if err := json.Unmarshal([]byte(stepsJSON), &def.Steps); err != nil {
		r.logger.Error("Failed to decode definition steps", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to decode definition steps: %w", err)
	}
	return &def, nil
}

// Verify interface compliance
var _ port.DefinitionStore = (*DefinitionRepository)(nil)
