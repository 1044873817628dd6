// Package server assembles the attendpass server: it derives the signing
// keys, connects PostgreSQL and the optional Redis registry, runs schema
// migrations and serves the credential service over gRPC until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/attendpass/internal/credential"
	"github.com/dmitrijs2005/attendpass/internal/cryptox"
	"github.com/dmitrijs2005/attendpass/internal/logging"
	"github.com/dmitrijs2005/attendpass/internal/server/config"
	"github.com/dmitrijs2005/attendpass/internal/server/exports"
	"github.com/dmitrijs2005/attendpass/internal/server/latest"
	"github.com/dmitrijs2005/attendpass/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendpass/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/attendpass/internal/server/grpc"
)

// sweepInterval is how often the in-memory registry drops expired entries.
const sweepInterval = time.Minute

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newRepositoryManager = repomanager.NewPostgresRepositoryManager

	notifySignals = signal.Notify
	stopSignals   = signal.Stop

	newRedisClient = func(c *config.Config) *redis.Client {
		return redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
	}
)

// core is the credential subsystem built from configuration alone.
type core struct {
	signer    *credential.HMACSigner
	issuer    *credential.Issuer
	validator *credential.Validator
	bulk      *credential.BulkIssuer
	renewer   *credential.Renewer
}

func newCore(c *config.Config, clk clock.Clock) (*core, error) {
	keys, err := cryptox.DeriveKeyRing(c.SecretKey, c.PreviousSecretKeys)
	if err != nil {
		return nil, fmt.Errorf("derive signing keys: %w", err)
	}

	signer, err := credential.NewHMACSigner(keys[0], keys[1:]...)
	if err != nil {
		return nil, err
	}

	issuer, err := credential.NewIssuer(signer, clk, credential.Policy{
		DefaultExpiryMinutes: c.DefaultExpiryMinutes,
		MaxExpiryMinutes:     c.MaxExpiryMinutes,
	})
	if err != nil {
		return nil, err
	}

	validator, err := credential.NewValidator(signer, clk)
	if err != nil {
		return nil, err
	}

	return &core{
		signer:    signer,
		issuer:    issuer,
		validator: validator,
		bulk:      credential.NewBulkIssuer(issuer, c.MaxBatchSize, c.BulkWorkers),
		renewer:   credential.NewRenewer(issuer, signer),
	}, nil
}

// waitFor retries op with exponential backoff until it succeeds, ctx ends or
// timeout elapses.
func waitFor(ctx context.Context, logger logging.Logger, name string, timeout time.Duration, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		err := op(ctx)
		if err != nil {
			logger.Warn(ctx, "dependency not ready, retrying", "dependency", name, "error", err.Error())
		}
		return err
	}, backoff.WithContext(b, ctx))
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	clock       clock.Clock
	db          *sql.DB
	redis       *redis.Client
	memory      *latest.MemoryStore
	credentials *services.CredentialService
	checkins    *services.CheckInService
}

// NewApp connects dependencies and builds the services. Dependencies that are
// not reachable within StartupTimeout fail startup.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, clock: clock.New()}
	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	core, err := newCore(c, app.clock)
	if err != nil {
		return err
	}

	app.db, err = openDB(c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := waitFor(ctx, app.logger, "postgres", c.StartupTimeout, app.db.PingContext); err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	var store latest.Store
	if c.RedisAddr != "" {
		app.redis = newRedisClient(c)
		rs := latest.NewRedisStore(app.redis)
		if err := waitFor(ctx, app.logger, "redis", c.StartupTimeout, rs.Ping); err != nil {
			return fmt.Errorf("redis init error: %w", err)
		}
		store = rs
	} else {
		app.memory = latest.NewMemoryStore(app.clock)
		store = app.memory
	}

	var exporter exports.Exporter
	if c.ExportEnabled {
		exporter = exports.NewS3Exporter(exports.Settings{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		}, app.clock)
	}

	app.credentials = services.NewCredentialService(core.issuer, core.bulk, core.renewer, store, exporter, app.logger)
	app.checkins = services.NewCheckInService(core.validator,
		services.NewPostgresRecorder(app.db, rm), store, c.EnforceLatest, app.clock, app.logger)

	app.logger.Info(ctx, "credential subsystem ready",
		"previous_keys", len(c.PreviousSecretKeys),
		"enforce_latest", c.EnforceLatest,
		"redis", c.RedisAddr != "",
		"export", c.ExportEnabled,
	)
	return nil
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err.Error())
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close", "error", err.Error())
		}
	}
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The returned
// channel is closed once the handler has unsubscribed, which happens on the
// first signal or when ctx is done.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	notifySignals(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stopSignals(sigs)

		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Shutdown signal received", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.credentials, app.checkins)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) sweepRegistry(ctx context.Context) {
	t := app.clock.Ticker(sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := app.memory.Sweep(); n > 0 {
				app.logger.Debug(ctx, "registry sweep", "removed", n)
			}
		}
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	signalsDone := app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.memory != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sweepRegistry(ctx)
		}()
	}

	wg.Wait()
	cancelFunc()
	<-signalsDone
	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}
