package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
)

// ErrPendingClaimExists is returned by Create when the listing already has a
// non-terminal claim. The lock should make this unreachable; the partial
// unique index is the backstop.
var ErrPendingClaimExists = errors.New("listing already has a pending claim")

const pendingClaimUniqueIndex = "claim_requests_one_pending_per_business"

type ClaimRequestRepository interface {
	Create(ctx context.Context, c *models.ClaimRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClaimRequest, error)
	GetPendingByBusinessID(ctx context.Context, businessID uuid.UUID) (*models.ClaimRequest, error)
	CountByBusinessID(ctx context.Context, businessID uuid.UUID) (int, error)
}

type claimRequestRepo struct {
	db DB
}

func NewClaimRequestRepository(db DB) ClaimRequestRepository {
	return &claimRequestRepo{db: db}
}

/* ---------- Create ---------- */

func (r *claimRequestRepo) Create(ctx context.Context, c *models.ClaimRequest) error {
	c.ComputeWasEdited()
	o := c.Overrides

	_, err := r.db.Exec(ctx, `
		INSERT INTO claim_requests (
			id,business_id,claimant_id,tenant,status,submitted_at,
			override_name,override_address,override_phone,override_website,
			override_category,override_type,override_description,override_tagline,override_hours,
			logo_url,hero_image_url,was_edited
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12,$13,$14,$15,
			$16,$17,$18
		)`,
		c.ID, c.BusinessID, c.ClaimantID, c.Tenant, string(c.Status), c.SubmittedAt,
		o.Name, o.Address, o.Phone, o.Website,
		o.Category, o.BusinessType, o.Description, o.Tagline, o.Hours,
		c.LogoURL, c.HeroImageURL, c.WasEdited,
	)
	if IsUniqueViolation(err, pendingClaimUniqueIndex) {
		return ErrPendingClaimExists
	}
	return err
}

/* ---------- Reads ---------- */

func (r *claimRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ClaimRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectClaim()+" WHERE id=$1", id)
	return r.scanClaim(row)
}

// GetPendingByBusinessID returns pgx.ErrNoRows if the listing has no pending claim.
func (r *claimRequestRepo) GetPendingByBusinessID(ctx context.Context, businessID uuid.UUID) (*models.ClaimRequest, error) {
	row := r.db.QueryRow(ctx,
		baseSelectClaim()+" WHERE business_id=$1 AND status=$2",
		businessID, string(models.ClaimStatusPending),
	)
	return r.scanClaim(row)
}

func (r *claimRequestRepo) CountByBusinessID(ctx context.Context, businessID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM claim_requests WHERE business_id=$1`, businessID).Scan(&n)
	return n, err
}

/* ---------- internals ---------- */

func baseSelectClaim() string {
	return `
		SELECT id,business_id,claimant_id,tenant,status,submitted_at,
		       override_name,override_address,override_phone,override_website,
		       override_category,override_type,override_description,override_tagline,override_hours,
		       logo_url,hero_image_url,was_edited
		FROM claim_requests`
}

func (r *claimRequestRepo) scanClaim(row pgx.Row) (*models.ClaimRequest, error) {
	var c models.ClaimRequest
	var status string
	o := &c.Overrides

	err := row.Scan(
		&c.ID, &c.BusinessID, &c.ClaimantID, &c.Tenant, &status, &c.SubmittedAt,
		&o.Name, &o.Address, &o.Phone, &o.Website,
		&o.Category, &o.BusinessType, &o.Description, &o.Tagline, &o.Hours,
		&c.LogoURL, &c.HeroImageURL, &c.WasEdited,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.ClaimStatus(status)
	return &c, nil
}
