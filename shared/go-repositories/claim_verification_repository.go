// go-repositories/claim_verification_repository.go
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
)

// ClaimVerificationRepository reads and consumes the one-time codes issued
// by the verification service. Issuance lives in that service; CreateCode
// exists for seeding and integration tests.
type ClaimVerificationRepository interface {
	CreateCode(ctx context.Context, email, purpose, code string, businessID uuid.UUID, expiresAt time.Time) (uuid.UUID, error)
	GetLatestCode(ctx context.Context, email, purpose string, businessID uuid.UUID) (*models.ClaimVerificationCode, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error

	// DeleteCode is idempotent: deleting a missing row is not an error.
	DeleteCode(ctx context.Context, id uuid.UUID) error
	CleanupExpired(ctx context.Context) error
}

type claimVerificationRepository struct {
	db DB
}

func NewClaimVerificationRepository(db DB) ClaimVerificationRepository {
	return &claimVerificationRepository{db: db}
}

func (r *claimVerificationRepository) CreateCode(
	ctx context.Context,
	email, purpose, code string,
	businessID uuid.UUID,
	expiresAt time.Time,
) (uuid.UUID, error) {
	id := uuid.New()
	q := `
        INSERT INTO business_claim_verification_codes
            (id, email, purpose, verification_code, business_id, expires_at, created_at, attempts)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), 0)
    `
	_, err := r.db.Exec(ctx, q, id, email, purpose, code, businessID, expiresAt)
	return id, err
}

// GetLatestCode returns pgx.ErrNoRows when no code was issued for the tuple.
func (r *claimVerificationRepository) GetLatestCode(
	ctx context.Context,
	email, purpose string,
	businessID uuid.UUID,
) (*models.ClaimVerificationCode, error) {
	q := `
        SELECT id, email, purpose, verification_code, business_id,
               expires_at, attempts, created_at
        FROM business_claim_verification_codes
        WHERE email = $1 AND purpose = $2 AND business_id = $3
        ORDER BY created_at DESC
        LIMIT 1
    `
	row := r.db.QueryRow(ctx, q, email, purpose, businessID)
	var rec models.ClaimVerificationCode
	err := row.Scan(
		&rec.ID,
		&rec.Email,
		&rec.Purpose,
		&rec.VerificationCode,
		&rec.BusinessID,
		&rec.ExpiresAt,
		&rec.Attempts,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *claimVerificationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	q := `UPDATE business_claim_verification_codes SET attempts = attempts + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *claimVerificationRepository) DeleteCode(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM business_claim_verification_codes WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *claimVerificationRepository) CleanupExpired(ctx context.Context) error {
	q := `DELETE FROM business_claim_verification_codes WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, q)
	return err
}
