package services

import (
	"context"

	internal_repositories "github.com/WalletPush/qwikker-bournemouth-sub006/internal/repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// VerificationCleanupService purges expired claim codes and rate-limit rows.
type VerificationCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type verificationCleanupService struct {
	codeRepo      repositories.ClaimVerificationRepository
	rateLimitRepo internal_repositories.RateLimitRepository
}

func NewVerificationCleanupService(
	codeRepo repositories.ClaimVerificationRepository,
	rateLimitRepo internal_repositories.RateLimitRepository,
) VerificationCleanupService {
	return &verificationCleanupService{
		codeRepo:      codeRepo,
		rateLimitRepo: rateLimitRepo,
	}
}

// CleanupDaily runs both purges. A failure in the first does not skip the
// second; the first error is returned.
func (s *verificationCleanupService) CleanupDaily(ctx context.Context) error {
	logger := utils.Logger
	var firstErr error

	if err := s.codeRepo.CleanupExpired(ctx); err != nil {
		logger.WithError(err).Error("Failed to cleanup business_claim_verification_codes")
		firstErr = err
	}
	if err := s.rateLimitRepo.CleanupExpired(ctx); err != nil {
		logger.WithError(err).Error("Failed to cleanup claim_rate_limits")
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		logger.Info("Daily claim verification cleanup completed successfully.")
	}
	return firstErr
}
