package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/utils/gcs"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Assets *gcs.Store
}

func NewApp(cfg *config.Config) (*App, error) {
	effectiveURL := cfg.DBUrl
	if cfg.LDFlag_UsingIsolatedSchema {
		var err error
		effectiveURL, err = utils.WithIsolatedRole(cfg.DBUrl, cfg.UniqueRunnerID, cfg.UniqueRunNumber)
		if err != nil {
			return nil, err
		}
		utils.Logger.Infof("Using isolated schema; connecting as role %s",
			utils.IsolatedRoleName(cfg.UniqueRunnerID, cfg.UniqueRunNumber))
	} else {
		utils.Logger.Info("Isolated schema disabled; using public schema.")
	}

	dbPool, err := connectWithRetry(effectiveURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	store, err := gcs.NewStore(ctx, cfg.GCSBucket, cfg.GCSCredentials)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("unable to create asset store: %w", err)
	}

	return &App{
		Config: cfg,
		DB:     dbPool,
		Assets: store,
	}, nil
}

func (a *App) Close() {
	if a.Assets != nil {
		if err := a.Assets.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing asset store client")
		}
	}
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("Database connection closed.")
	}
}

func connectWithRetry(databaseURL string) (*pgxpool.Pool, error) {
	backoff := initialBackoff
	var lastErr error

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err := newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to database on attempt %d", i)
			return pool, nil
		}
		lastErr = err

		utils.Logger.WithError(err).Warnf(
			"Failed to connect to database on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i < maxRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, lastErr)
}

// newDBPool builds the pool with idle sockets retired before the platform
// proxy drops them, and a periodic health check on every connection.
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}
