package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

type identityProvisioner struct {
	repo         repositories.ClaimantAccountRepository
	passwordCost int
}

// NewIdentityProvisioner stores claimant identities in claimant_accounts
// with a bcrypt password hash.
func NewIdentityProvisioner(repo repositories.ClaimantAccountRepository, passwordCost int) IdentityProvisioner {
	return &identityProvisioner{repo: repo, passwordCost: passwordCost}
}

func (p *identityProvisioner) Create(
	ctx context.Context,
	email, password string,
	meta ClaimantMetadata,
) (string, error) {
	hash, err := utils.HashPassword(password, p.passwordCost)
	if err != nil {
		return "", fmt.Errorf("%w: hashing password: %v", utils.ErrProvisioningFailed, err)
	}

	role := meta.Role
	if role == "" {
		role = utils.ClaimantRoleBusinessOwner
	}

	acct := &models.ClaimantAccount{
		ID:           uuid.New(),
		Email:        utils.NormalizeKey(email),
		PasswordHash: hash,
		FirstName:    meta.FirstName,
		LastName:     meta.LastName,
		Role:         role,
		Tenant:       utils.NormalizeKey(meta.Tenant),
	}

	if err := p.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, repositories.ErrClaimantEmailTaken) {
			return "", utils.ErrDuplicateAccount
		}
		return "", fmt.Errorf("%w: %v", utils.ErrProvisioningFailed, err)
	}
	return acct.ID.String(), nil
}

func (p *identityProvisioner) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid claimant id %q: %w", id, err)
	}
	return p.repo.HardDelete(ctx, uid)
}
