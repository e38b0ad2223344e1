package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type BusinessListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.BusinessListing, error)

	// TransitionIfEqual moves the listing from -> to only if it is
	// currently in from. Returns the affected row count (0 or 1).
	TransitionIfEqual(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error)

	// RevertIfEqual is the rollback form of TransitionIfEqual. It never
	// reverts a listing that has a committed pending claim.
	RevertIfEqual(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type businessListingRepo struct {
	db DB
}

func NewBusinessListingRepository(db DB) BusinessListingRepository {
	return &businessListingRepo{db: db}
}

/* ---------- Reads ---------- */

// GetByID returns pgx.ErrNoRows when the listing does not exist.
func (r *businessListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BusinessListing, error) {
	row := r.db.QueryRow(ctx, baseSelectListing()+" WHERE id=$1", id)
	l, err := r.scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return l, nil
}

/* ---------- Conditional transitions ---------- */

func (r *businessListingRepo) TransitionIfEqual(
	ctx context.Context,
	id uuid.UUID,
	from, to models.ListingStatus,
) (int64, error) {
	if from == to || !models.CanTransition(from, to) {
		return 0, fmt.Errorf("illegal listing transition %s -> %s", from, to)
	}
	return r.conditionalStatusUpdate(ctx, id, from, to, "")
}

func (r *businessListingRepo) RevertIfEqual(
	ctx context.Context,
	id uuid.UUID,
	from, to models.ListingStatus,
) (int64, error) {
	if from != models.ListingStatusPendingClaim || to != models.ListingStatusUnclaimed {
		return 0, fmt.Errorf("illegal listing revert %s -> %s", from, to)
	}
	return r.conditionalStatusUpdate(ctx, id, from, to, `
		AND NOT EXISTS (
			SELECT 1 FROM claim_requests
			WHERE business_id=$2 AND status='pending'
		)`)
}

/* ---------- internals ---------- */

// conditionalStatusUpdate is the whole concurrency story for a listing:
// the WHERE status=$3 guard makes exactly one concurrent caller see a row.
// extraWhere is appended to the WHERE clause and may reference $1..$3.
func (r *businessListingRepo) conditionalStatusUpdate(
	ctx context.Context,
	id uuid.UUID,
	from, to models.ListingStatus,
	extraWhere string,
) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE business_listings SET
			status=$1,
			row_version=row_version+1,
			updated_at=NOW()
		WHERE id=$2 AND status=$3`+extraWhere,
		string(to), id, string(from),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func baseSelectListing() string {
	return `
		SELECT id,tenant,status,name,address,
		       phone,website,email,category,business_type,
		       description,tagline,hours,
		       row_version,created_at,updated_at
		FROM business_listings`
}

func (r *businessListingRepo) scanListing(row pgx.Row) (*models.BusinessListing, error) {
	var l models.BusinessListing
	var status string

	err := row.Scan(
		&l.ID, &l.Tenant, &status, &l.Name, &l.Address,
		&l.Phone, &l.Website, &l.Email, &l.Category, &l.BusinessType,
		&l.Description, &l.Tagline, &l.Hours,
		&l.RowVersion, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		// The caller is responsible for interpreting the error (e.g., pgx.ErrNoRows).
		return nil, err
	}
	l.Status = models.ListingStatus(status)
	return &l, nil
}
