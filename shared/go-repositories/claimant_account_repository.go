package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
)

// ErrClaimantEmailTaken is returned by Create when the email already has an account.
var ErrClaimantEmailTaken = errors.New("claimant email already registered")

const claimantEmailUniqueConstraint = "claimant_accounts_email_key"

type ClaimantAccountRepository interface {
	Create(ctx context.Context, acct *models.ClaimantAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClaimantAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.ClaimantAccount, error)

	// HardDelete removes the row entirely. Missing rows are not an error.
	HardDelete(ctx context.Context, id uuid.UUID) error
}

type claimantAccountRepo struct {
	db DB
}

func NewClaimantAccountRepository(db DB) ClaimantAccountRepository {
	return &claimantAccountRepo{db: db}
}

func (r *claimantAccountRepo) Create(ctx context.Context, acct *models.ClaimantAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO claimant_accounts (
			id,email,password_hash,first_name,last_name,role,tenant,created_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,NOW()
		)`,
		acct.ID, acct.Email, acct.PasswordHash, acct.FirstName, acct.LastName,
		acct.Role, acct.Tenant,
	)
	if IsUniqueViolation(err, claimantEmailUniqueConstraint) {
		return ErrClaimantEmailTaken
	}
	return err
}

func (r *claimantAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ClaimantAccount, error) {
	row := r.db.QueryRow(ctx, baseSelectClaimant()+" WHERE id=$1", id)
	return r.scanClaimant(row)
}

func (r *claimantAccountRepo) GetByEmail(ctx context.Context, email string) (*models.ClaimantAccount, error) {
	row := r.db.QueryRow(ctx, baseSelectClaimant()+" WHERE email=$1", email)
	return r.scanClaimant(row)
}

func (r *claimantAccountRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM claimant_accounts WHERE id=$1`, id)
	return err
}

func baseSelectClaimant() string {
	return `
		SELECT id,email,password_hash,first_name,last_name,role,tenant,created_at
		FROM claimant_accounts`
}

func (r *claimantAccountRepo) scanClaimant(row pgx.Row) (*models.ClaimantAccount, error) {
	var a models.ClaimantAccount
	if err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Role, &a.Tenant, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
