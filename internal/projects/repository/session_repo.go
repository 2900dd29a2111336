package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/popcodeorg/playground-backend/internal/projects/domain"
)

const (
	sessionKeyPrefix = "pg:session:"       // Last edited project of a user: pg:session:{user_id}:last
	sessionTTL       = 30 * 24 * time.Hour // TTL for last-session data (30 days)
)

var ErrSessionNotFound = errors.New("last session not found")

// SessionRepository caches the project a user was editing so the next
// session can restore it.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// SaveLastSession stores p as the user's last edited project.
func (r *SessionRepository) SaveLastSession(ctx context.Context, userID string, p domain.Project) error {
	data, err := json.Marshal(p.Data())
	if err != nil {
		return fmt.Errorf("failed to marshal session project: %w", err)
	}
	if err := r.client.Set(ctx, r.lastSessionKey(userID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save last session: %w", err)
	}
	return nil
}

// LoadLastSession returns the user's last edited project.
func (r *SessionRepository) LoadLastSession(ctx context.Context, userID string) (domain.ProjectData, error) {
	data, err := r.client.Get(ctx, r.lastSessionKey(userID)).Result()
	if err == redis.Nil {
		return domain.ProjectData{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.ProjectData{}, fmt.Errorf("failed to get last session: %w", err)
	}

	var p domain.ProjectData
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return domain.ProjectData{}, fmt.Errorf("failed to unmarshal last session: %w", err)
	}
	return p, nil
}

// ClearLastSession forgets the user's last edited project.
func (r *SessionRepository) ClearLastSession(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.lastSessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear last session: %w", err)
	}
	return nil
}

func (r *SessionRepository) lastSessionKey(userID string) string {
	return fmt.Sprintf("%s%s:last", sessionKeyPrefix, userID)
}
