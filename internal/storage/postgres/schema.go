package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; it runs on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS playground_projects (
		user_id     TEXT        NOT NULL,
		project_key TEXT        NOT NULL,
		data        JSONB       NOT NULL,
		updated_at  BIGINT,
		is_archived BOOLEAN     NOT NULL DEFAULT FALSE,
		saved_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, project_key)
	)`,
	`CREATE INDEX IF NOT EXISTS playground_projects_user_updated_idx
		ON playground_projects (user_id, updated_at DESC NULLS LAST)`,
}

// EnsureSchema creates the tables the service needs in one transaction.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
