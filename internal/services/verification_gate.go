package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

type verificationGate struct {
	repo        repositories.ClaimVerificationRepository
	maxAttempts int
	now         func() time.Time
}

// NewVerificationGate validates codes against business_claim_verification_codes.
// A wrong code counts against the code's attempts; once maxAttempts is
// reached the code is dead even if the right value is sent later.
func NewVerificationGate(repo repositories.ClaimVerificationRepository, maxAttempts int) VerificationGate {
	return &verificationGate{repo: repo, maxAttempts: maxAttempts, now: time.Now}
}

func (g *verificationGate) Validate(
	ctx context.Context,
	email, purpose, code string,
	businessID uuid.UUID,
) (*models.ClaimVerificationCode, error) {
	email = utils.NormalizeKey(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, utils.ErrVerificationFailed
	}

	rec, err := g.repo.GetLatestCode(ctx, email, purpose, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrVerificationFailed
		}
		return nil, fmt.Errorf("verification code lookup: %w", err)
	}

	log := utils.Logger.WithFields(logrus.Fields{
		"business_id": businessID.String(),
		"email":       email,
	})

	if rec.IsExpired(g.now()) {
		log.Info("Claim verification code expired")
		return nil, utils.ErrVerificationFailed
	}
	if g.maxAttempts > 0 && rec.Attempts >= g.maxAttempts {
		log.Warn("Claim verification code has no attempts left")
		return nil, utils.ErrVerificationFailed
	}
	if subtle.ConstantTimeCompare([]byte(rec.VerificationCode), []byte(code)) != 1 {
		if incErr := g.repo.IncrementAttempts(ctx, rec.ID); incErr != nil {
			log.WithError(incErr).Error("Failed to increment verification attempts")
		}
		return nil, utils.ErrVerificationFailed
	}
	return rec, nil
}

func (g *verificationGate) Consume(ctx context.Context, id uuid.UUID) error {
	return g.repo.DeleteCode(ctx, id)
}
