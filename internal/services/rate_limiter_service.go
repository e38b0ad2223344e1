package services

import (
	"context"
	"fmt"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// RateLimiterService throttles claim submissions.
type RateLimiterService interface {
	CheckClaimRateLimits(ctx context.Context, ip, email string) error
}

type rateLimiterService struct {
	repo repositories.RateLimitRepository
	cfg  *config.Config
}

func NewRateLimiterService(repo repositories.RateLimitRepository, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{repo: repo, cfg: cfg}
}

// CheckClaimRateLimits checks per-IP and per-email limits. Both counters
// are bumped even when the first already rejects, so a blocked IP cannot
// try many emails for free.
func (s *rateLimiterService) CheckClaimRateLimits(ctx context.Context, ip, email string) error {
	// 1. Per-IP limit
	ipKey := fmt.Sprintf("claim:ip:%s", ip)
	ipAllowed, err := s.repo.IncrementAndCheck(ctx, ipKey, s.cfg.ClaimLimitPerIPPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}

	// 2. Per-email limit
	emailKey := fmt.Sprintf("claim:email:%s", utils.NormalizeKey(email))
	emailAllowed, err := s.repo.IncrementAndCheck(ctx, emailKey, s.cfg.ClaimLimitPerEmailPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}

	if !ipAllowed {
		utils.Logger.Warnf("Per-IP claim rate limit exceeded (key: %s)", ipKey)
		return utils.ErrRateLimitExceeded
	}
	if !emailAllowed {
		utils.Logger.Warnf("Per-email claim rate limit exceeded (key: %s)", emailKey)
		return utils.ErrRateLimitExceeded
	}
	return nil
}
