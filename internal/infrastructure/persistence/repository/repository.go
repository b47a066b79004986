package repository

import (
	"context"
	"database/sql"

	"github.com/crmforge/approval-engine/internal/infrastructure/persistence/sqlite"
)

// getExecutor returns the transaction carried by ctx when running inside
// WithTransaction, otherwise the bare connection.
func getExecutor(ctx context.Context, db *sql.DB) sqlite.Executor {
	if tx := sqlite.TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}
