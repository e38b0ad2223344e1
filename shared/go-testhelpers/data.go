package testhelpers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// UniqueEmail returns an address that skips external deliverability checks.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), utils.TestEmailSuffix)
}

// CreateTestListing inserts an unclaimed listing for tenant and registers
// cleanup of everything hanging off it.
func (h *TestHelper) CreateTestListing(ctx context.Context, tenant string) *models.BusinessListing {
	id := uuid.New()
	_, err := h.DB.Exec(ctx, `
		INSERT INTO business_listings (id, tenant, status, name, address, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, NOW(), NOW())`,
		id, tenant, string(models.ListingStatusUnclaimed), "Test Cafe "+id.String()[:8], "1 Test Street",
	)
	require.NoError(h.T, err, "Failed to create test listing")

	h.T.Cleanup(func() { h.DeleteListingCascade(context.Background(), id) })

	l, err := h.ListingRepo.GetByID(ctx, id)
	require.NoError(h.T, err)
	return l
}

// CreateTestCode issues a claim verification code valid for ttl.
func (h *TestHelper) CreateTestCode(ctx context.Context, email string, businessID uuid.UUID, code string, ttl time.Duration) uuid.UUID {
	id, err := h.CodeRepo.CreateCode(ctx, email, utils.ClaimVerificationPurpose, code, businessID, time.Now().Add(ttl))
	require.NoError(h.T, err, "Failed to create claim verification code")
	return id
}

// DeleteListingCascade removes a listing with its claims, claimants,
// codes and compensation records.
func (h *TestHelper) DeleteListingCascade(ctx context.Context, id uuid.UUID) {
	_, _ = h.DB.Exec(ctx, `
		WITH claims AS (
			DELETE FROM claim_requests WHERE business_id=$1 RETURNING claimant_id
		)
		DELETE FROM claimant_accounts WHERE id IN (SELECT claimant_id FROM claims)`, id)
	_, _ = h.DB.Exec(ctx, `DELETE FROM business_claim_verification_codes WHERE business_id=$1`, id)
	_, _ = h.DB.Exec(ctx, `DELETE FROM claim_compensation_failures WHERE business_id=$1`, id)
	_, _ = h.DB.Exec(ctx, `DELETE FROM business_listings WHERE id=$1`, id)
}

// CountClaimants returns how many claimant accounts exist for email.
func (h *TestHelper) CountClaimants(ctx context.Context, email string) int {
	var n int
	require.NoError(h.T, h.DB.QueryRow(ctx, `SELECT count(*) FROM claimant_accounts WHERE email=$1`, email).Scan(&n))
	return n
}

// DeleteClaimantsByEmail removes accounts created by a test.
func (h *TestHelper) DeleteClaimantsByEmail(ctx context.Context, email string) {
	_, _ = h.DB.Exec(ctx, `DELETE FROM claimant_accounts WHERE email=$1`, email)
}
