package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

// ProjectRepository persists a user's projects in Postgres, one row per
// project with the record stored as JSONB.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ListByUser returns every saved project of the user, most recently
// modified first.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]domain.ProjectData, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id required")
	}

	const q = `
SELECT project_key, data
FROM playground_projects
WHERE user_id = $1
ORDER BY updated_at DESC NULLS LAST, project_key;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProjectData, 0, 16)
	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		var p domain.ProjectData
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", key, err)
		}
		p.ProjectKey = key
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertMany saves projects in a single transaction.
func (r *ProjectRepository) UpsertMany(ctx context.Context, userID string, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const q = `
INSERT INTO playground_projects (user_id, project_key, data, updated_at, is_archived)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, project_key) DO UPDATE
SET data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at,
    is_archived = EXCLUDED.is_archived,
    saved_at = now();
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range projects {
		data, err := json.Marshal(p.Data())
		if err != nil {
			return fmt.Errorf("encode project %s: %w", p.ProjectKey, err)
		}
		var updatedAt sql.NullInt64
		if p.UpdatedAt != nil {
			updatedAt = sql.NullInt64{Int64: *p.UpdatedAt, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, userID, p.ProjectKey, data, updatedAt, p.IsArchived); err != nil {
			return fmt.Errorf("upsert project %s: %w", p.ProjectKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteByKeys removes the given projects of the user and reports how many
// rows went away.
func (r *ProjectRepository) DeleteByKeys(ctx context.Context, userID string, projectKeys []string) (int64, error) {
	if len(projectKeys) == 0 {
		return 0, nil
	}

	const q = `
DELETE FROM playground_projects
WHERE user_id = $1 AND project_key = ANY($2);
`
	result, err := r.db.ExecContext(ctx, q, userID, pq.Array(projectKeys))
	if err != nil {
		return 0, fmt.Errorf("delete projects: %w", err)
	}
	return result.RowsAffected()
}
