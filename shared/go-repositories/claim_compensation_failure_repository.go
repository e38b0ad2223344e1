package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
)

// ClaimCompensationFailureRepository is an append-only record of rollback
// steps that failed. Operators reconcile from it by hand.
type ClaimCompensationFailureRepository interface {
	Create(ctx context.Context, f *models.ClaimCompensationFailure) error
	ListByBusinessID(ctx context.Context, businessID uuid.UUID) ([]*models.ClaimCompensationFailure, error)
}

type claimCompensationFailureRepo struct {
	db DB
}

func NewClaimCompensationFailureRepository(db DB) ClaimCompensationFailureRepository {
	return &claimCompensationFailureRepo{db: db}
}

func (r *claimCompensationFailureRepo) Create(ctx context.Context, f *models.ClaimCompensationFailure) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	q := `
        INSERT INTO claim_compensation_failures (
            id, business_id, claimant_id, step, cause, error, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	_, err := r.db.Exec(ctx, q,
		f.ID,
		f.BusinessID,
		f.ClaimantID,
		f.Step,
		f.Cause,
		f.Error,
	)
	return err
}

func (r *claimCompensationFailureRepo) ListByBusinessID(
	ctx context.Context,
	businessID uuid.UUID,
) ([]*models.ClaimCompensationFailure, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, claimant_id, step, cause, error, created_at
		FROM claim_compensation_failures
		WHERE business_id = $1
		ORDER BY created_at ASC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ClaimCompensationFailure
	for rows.Next() {
		var f models.ClaimCompensationFailure
		var claimant pgtype.UUID
		if err := rows.Scan(&f.ID, &f.BusinessID, &claimant, &f.Step, &f.Cause, &f.Error, &f.CreatedAt); err != nil {
			return nil, err
		}
		if claimant.Status == pgtype.Present {
			id := uuid.UUID(claimant.Bytes)
			f.ClaimantID = &id
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
