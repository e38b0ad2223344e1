package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
)

// RateLimitRepository counts claim attempts per key in fixed windows.
type RateLimitRepository interface {
	// IncrementAndCheck bumps the counter for key and reports whether the
	// attempt is still within limit. An expired window restarts at 1.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	CleanupExpired(ctx context.Context) error
}

type rateLimitRepository struct {
	db repositories.DB
}

func NewRateLimitRepository(db repositories.DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

func (r *rateLimitRepository) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	query := `
        INSERT INTO claim_rate_limits (key, attempt_count, expires_at)
        VALUES ($1, 1, NOW() + $2::interval)
        ON CONFLICT (key) DO UPDATE
        SET attempt_count = CASE
            WHEN claim_rate_limits.expires_at < NOW() THEN 1
            ELSE claim_rate_limits.attempt_count + 1
        END,
        expires_at = CASE
            WHEN claim_rate_limits.expires_at < NOW() THEN NOW() + $2::interval
            ELSE claim_rate_limits.expires_at
        END
        RETURNING attempt_count;
    `

	var count int
	if err := r.db.QueryRow(ctx, query, key, window).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return count <= limit, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) error {
	query := `DELETE FROM claim_rate_limits WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}

