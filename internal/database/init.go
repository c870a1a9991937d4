package database

import (
	"context"
	"fmt"

	"github.com/yourusername/turfsim/internal/config"
)

// Initialize creates a database connection pool and checks the schema
// has been migrated
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	// Migrations might not have run yet on a fresh database; warn rather
	// than fail so setup tooling can still connect.
	var migrationCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&migrationCount)
	if err != nil {
		return db, nil
	}

	if migrationCount == 0 {
		fmt.Println("Warning: No migrations have been applied. Please run database migrations.")
	}

	return db, nil
}
