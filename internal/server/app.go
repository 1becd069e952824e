// Package server wires the cardkeeper wallet store: configuration, storage
// backends, services and the gRPC endpoint, with graceful shutdown on
// SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/config"
	gs "github.com/dmitrijs2005/cardkeeper/internal/server/grpc"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeeper/internal/server/services"
	"golang.org/x/sync/errgroup"
)

const tokenJanitorInterval = time.Hour

// Seams for tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	runMigrations = func(ctx context.Context, m repomanager.RepositoryManager, db *sql.DB) error {
		return m.RunMigrations(ctx, db)
	}
	newS3Store = func(ctx context.Context, c *config.Config) (blobs.Repository, error) {
		repo, err := blobs.NewS3Repository(ctx, blobs.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	blobService *services.BlobService
}

// NewApp opens the database, applies migrations and builds the services.
// Log output goes to w as JSON.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(w, c.LogLevel, logging.FormatJSON)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	var objectStore blobs.Repository
	if c.BlobBackend == config.BlobBackendS3 {
		if objectStore, err = newS3Store(ctx, c); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
	}

	rm := repomanager.NewPostgresRepositoryManager(objectStore)
	if err := runMigrations(ctx, rm, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := services.NewPasswordHasher()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	logger.Info(ctx, "storage ready", "blob_backend", c.BlobBackend)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		userService: services.NewUserService(db, rm, hasher, c),
		blobService: services.NewBlobService(db, rm),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
}

// purgeTokens removes expired refresh tokens every interval until ctx ends.
func (app *App) purgeTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

// Run serves until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.blobService,
		app.config.SecretKey, gs.WithAuthRateLimit(app.config.AuthRateLimit, app.config.AuthRateBurst))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return s.Run(gctx)
	})
	g.Go(func() error {
		app.purgeTokens(gctx, tokenJanitorInterval)
		return nil
	})

	err = g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) Close() error {
	return app.db.Close()
}
