package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/dtos"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// PendingClaimReader finds the open claim on a listing, if any.
type PendingClaimReader interface {
	GetPendingByBusinessID(ctx context.Context, businessID uuid.UUID) (*models.ClaimRequest, error)
}

// ListingService answers tenant-scoped read queries about listings.
type ListingService struct {
	listings ListingDirectory
	claims   PendingClaimReader
}

func NewListingService(listings ListingDirectory, claims PendingClaimReader) *ListingService {
	return &ListingService{listings: listings, claims: claims}
}

// GetClaimStatus returns the listing status and the pending claim, if one
// exists. The same isolation rule as claim submission applies.
func (s *ListingService) GetClaimStatus(ctx context.Context, tenant, rawID string) (*dtos.ClaimStatusResponse, error) {
	businessID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, claimError(http.StatusBadRequest, utils.ErrCodeValidation, "Invalid business ID", utils.ErrValidation)
	}

	listing, err := s.listings.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, claimError(http.StatusNotFound, utils.ErrCodeNotFound, "Business not found", utils.ErrListingNotFound)
		}
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to load business", err)
	}
	if err := enforceTenantIsolation("claim_status", businessID, tenant, listing.Tenant); err != nil {
		return nil, claimError(http.StatusForbidden, utils.ErrCodeForbidden, "Access denied", err)
	}

	resp := &dtos.ClaimStatusResponse{
		Success:       true,
		BusinessID:    listing.ID.String(),
		ListingStatus: string(listing.Status),
	}
	if listing.Status != models.ListingStatusPendingClaim {
		return resp, nil
	}

	claim, err := s.claims.GetPendingByBusinessID(ctx, businessID)
	switch {
	case err == nil:
		id := claim.ID.String()
		resp.PendingClaimID = &id
		resp.SubmittedAt = &claim.SubmittedAt
		resp.WasEdited = &claim.WasEdited
	case errors.Is(err, pgx.ErrNoRows):
		// Lock held by a saga that has not written its record yet.
	default:
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to load claim", err)
	}
	return resp, nil
}
