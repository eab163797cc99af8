package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jintaekimmm/cn-bis/internal/migrations"
)

// RunMigrations creates the reference tables when missing and verifies the
// schema the repositories query.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if err := migrations.Run(ctx, pool, logger); err != nil {
		return err
	}

	return migrations.CheckSchema(ctx, pool)
}
