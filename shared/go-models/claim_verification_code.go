package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimVerificationCode for business_claim_verification_codes table.
// Single use: the row is deleted once a claim commits.
type ClaimVerificationCode struct {
	ID               uuid.UUID
	Email            string
	Purpose          string
	VerificationCode string
	BusinessID       uuid.UUID
	ExpiresAt        time.Time
	Attempts         int
	CreatedAt        time.Time
}

func (c *ClaimVerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
