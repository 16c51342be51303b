// Package server wires the GophDrive server together: storage backends,
// the key pair, services, the HTTP API and the gRPC health endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	gs "github.com/dmitrijs2005/gophdrive/internal/server/grpc"
	"github.com/dmitrijs2005/gophdrive/internal/server/httpapi"
	"github.com/dmitrijs2005/gophdrive/internal/server/keyring"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/dmitrijs2005/gophdrive/internal/server/sessions"
)

const healthCheckInterval = 15 * time.Second

var sqlOpen = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	health *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, rm, err := openRepositories(ctx, c)
	if err != nil {
		return nil, err
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	keys, err := keyring.LoadOrGenerate(c.KeyPath, keyring.DefaultBits)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("server key: %w", err)
	}

	reg := sessions.NewRegistry()
	us := services.NewUserService(db, rm, keys, reg, c, logger)
	fs := services.NewFileService(db, rm, store, reg, c, logger)
	handler := httpapi.NewHandler(us, fs, logger)

	var check gs.CheckFunc
	if db != nil {
		check = db.PingContext
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpapi.NewServer(c.HTTPAddr, handler.Routes(), logger),
		health: gs.NewHealthServer(c.GRPCAddr, logger, check, healthCheckInterval),
	}, nil
}

func openRepositories(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return db, rm, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blobs.Store, error) {
	switch c.BlobStore {
	case config.BlobStoreMemory, "":
		return blobs.NewMemoryStore(), nil
	case config.BlobStoreS3:
		return blobs.NewS3Store(ctx, c)
	}
	return nil, fmt.Errorf("unknown blob store %q", c.BlobStore)
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled or either server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")
	defer closeDB(app.db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.health.Run(gctx) })

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}
