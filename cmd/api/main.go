package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"

	"github.com/popcodeorg/playground-backend/config"
	httpapi "github.com/popcodeorg/playground-backend/internal/api/http"
	authpkg "github.com/popcodeorg/playground-backend/internal/auth"
	authmw "github.com/popcodeorg/playground-backend/internal/auth/middleware"
	"github.com/popcodeorg/playground-backend/internal/bootstrap"
	"github.com/popcodeorg/playground-backend/internal/clients/firebase"
	"github.com/popcodeorg/playground-backend/internal/clients/github"
	"github.com/popcodeorg/playground-backend/internal/platform/logger"
	"github.com/popcodeorg/playground-backend/internal/projects/repository"
	"github.com/popcodeorg/playground-backend/internal/projects/service"
	"github.com/popcodeorg/playground-backend/internal/storage/postgres"
)

const serviceName = "playground-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server exited", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	bootstrap.SetGinMode(cfg.App.Environment)

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.URL()})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var (
		redisClient  *redis.Client
		lastSessions service.LastSessionRepository
		redisPing    httpapi.RedisPinger
	)
	if redisClient, err = bootstrap.OpenRedis(ctx, cfg.Redis); err != nil {
		log.Warn("redis unavailable, last sessions disabled", "error", err)
	} else {
		defer redisClient.Close()
		lastSessions = repository.NewSessionRepository(redisClient)
		redisPing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	journal, err := repository.OpenJournal(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer journal.Close()

	var (
		verifier  authmw.TokenVerifier
		snapshots service.Snapshots
	)
	if cfg.Firebase.CredentialsPath != "" {
		app, err := firebase.NewApp(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
		var authClient *firebaseauth.Client
		if authClient, err = authpkg.NewAuthClient(ctx, app); err != nil {
			return err
		}
		verifier = authClient
		if cfg.Firebase.DatabaseURL != "" {
			store, err := firebase.NewSnapshotStore(ctx, app)
			if err != nil {
				return err
			}
			snapshots = store
		}
	} else if cfg.IsProduction() {
		return errors.New("FIREBASE_CREDENTIALS_PATH is required in production")
	} else {
		log.Warn("firebase not configured, using X-User-Id authentication")
	}

	sessions := service.NewSessionService(
		repository.NewProjectRepository(sqlDB),
		lastSessions,
		log,
		service.WithJournal(journal),
	)
	gh := github.New(github.Options{
		BaseURL:       cfg.GitHub.APIURL,
		RatePerSecond: cfg.GitHub.RatePerSecond,
	})
	exports := service.NewExportService(sessions, gh, snapshots, cfg.App.PublicURL, log)

	autosave := service.NewAutosave(sessions, cfg.Sessions.AutosaveInterval, cfg.Sessions.IdleTimeout, log)
	if err := autosave.Start(); err != nil {
		return err
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DB:             pool,
		Redis:          redisPing,
		Verifier:       verifier,
		Sessions:       sessions,
		Exports:        exports,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.App.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if err := autosave.Stop(shutdownCtx); err != nil {
			log.Error("final flush failed", "error", err)
		}
		log.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
