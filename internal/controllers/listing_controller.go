package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/services"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-middleware"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

type ListingController struct {
	listingService *services.ListingService
}

func NewListingController(listingService *services.ListingService) *ListingController {
	return &ListingController{listingService: listingService}
}

// GET /api/v1/listings/{id}/claim-status
func (c *ListingController) GetClaimStatusHandler(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeUnknownTenant, "Unknown tenant", nil)
		return
	}

	resp, err := c.listingService.GetClaimStatus(r.Context(), tenant, mux.Vars(r)["id"])
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
