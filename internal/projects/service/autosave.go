package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/popcodeorg/playground-backend/internal/platform/logger"
)

// Autosave periodically flushes open sessions and closes idle ones.
type Autosave struct {
	sessions    *SessionService
	interval    time.Duration
	idleTimeout time.Duration
	log         *logger.Logger
	cron        *cron.Cron
}

func NewAutosave(sessions *SessionService, interval, idleTimeout time.Duration, log *logger.Logger) *Autosave {
	if log == nil {
		log = logger.Nop()
	}
	return &Autosave{
		sessions:    sessions,
		interval:    interval,
		idleTimeout: idleTimeout,
		log:         log,
		cron:        cron.New(cron.WithSeconds()),
	}
}

// Start schedules the job. It returns immediately.
func (a *Autosave) Start() error {
	if a.interval <= 0 {
		return fmt.Errorf("autosave interval must be positive, got %s", a.interval)
	}
	if _, err := a.cron.AddFunc("@every "+a.interval.String(), a.Run); err != nil {
		return fmt.Errorf("failed to schedule autosave: %w", err)
	}
	a.cron.Start()
	a.log.Info("autosave scheduler started", "interval", a.interval.String(), "idle_timeout", a.idleTimeout.String())
	return nil
}

// Run flushes every session once and evicts idle ones.
func (a *Autosave) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), a.interval)
	defer cancel()

	a.log.Debug("autosave run", "sessions", len(a.sessions.OpenSessions()))
	if err := a.sessions.FlushAll(ctx); err != nil {
		a.log.Warn("autosave incomplete", "error", err)
	}
	if a.idleTimeout > 0 {
		if n := a.sessions.EvictIdle(ctx, a.idleTimeout); n > 0 {
			a.log.Info("idle sessions closed", "count", n)
		}
	}
}

// Stop waits for a running job and flushes one last time.
func (a *Autosave) Stop(ctx context.Context) error {
	<-a.cron.Stop().Done()
	return a.sessions.FlushAll(ctx)
}
