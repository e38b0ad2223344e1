package dtos

import (
	"net/url"
	"strings"
	"time"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// ----------------------
// Requests
// ----------------------

// SubmitClaimRequest is the typed form of POST /api/v1/claims. Tenant is
// never part of it; it comes from the Host header.
type SubmitClaimRequest struct {
	Email            string `form:"email" validate:"required,email,max=254"`
	Password         string `form:"password" validate:"required,min=8,max=72"`
	FirstName        string `form:"first_name" validate:"required,min=1,max=100"`
	LastName         string `form:"last_name" validate:"required,min=1,max=100"`
	BusinessID       string `form:"business_id" validate:"required,uuid"`
	VerificationCode string `form:"verification_code" validate:"required,min=4,max=32"`

	// Website is the legacy name for BusinessWebsite.
	Website *string `form:"website" validate:"omitempty,max=2048"`

	BusinessName        *string `form:"business_name" validate:"omitempty,max=255"`
	BusinessAddress     *string `form:"business_address" validate:"omitempty,max=500"`
	BusinessPhone       *string `form:"business_phone" validate:"omitempty,max=40"`
	BusinessWebsite     *string `form:"business_website" validate:"omitempty,max=2048"`
	BusinessCategory    *string `form:"business_category" validate:"omitempty,max=100"`
	BusinessType        *string `form:"business_type" validate:"omitempty,max=100"`
	BusinessDescription *string `form:"business_description" validate:"omitempty,max=5000"`
	BusinessTagline     *string `form:"business_tagline" validate:"omitempty,max=255"`
	BusinessHours       *string `form:"business_hours" validate:"omitempty,max=2000"`
}

// NewSubmitClaimRequestFromForm reads the claim fields from a parsed form.
// Required fields are trimmed; optional fields stay nil when absent or blank.
func NewSubmitClaimRequestFromForm(v url.Values) SubmitClaimRequest {
	return SubmitClaimRequest{
		Email:            strings.TrimSpace(v.Get("email")),
		Password:         v.Get("password"),
		FirstName:        strings.TrimSpace(v.Get("first_name")),
		LastName:         strings.TrimSpace(v.Get("last_name")),
		BusinessID:       strings.TrimSpace(v.Get("business_id")),
		VerificationCode: strings.TrimSpace(v.Get("verification_code")),

		Website: optionalField(v, "website"),

		BusinessName:        optionalField(v, "business_name"),
		BusinessAddress:     optionalField(v, "business_address"),
		BusinessPhone:       optionalField(v, "business_phone"),
		BusinessWebsite:     optionalField(v, "business_website"),
		BusinessCategory:    optionalField(v, "business_category"),
		BusinessType:        optionalField(v, "business_type"),
		BusinessDescription: optionalField(v, "business_description"),
		BusinessTagline:     optionalField(v, "business_tagline"),
		BusinessHours:       optionalField(v, "business_hours"),
	}
}

// Overrides maps the optional business fields onto the claim model.
// An explicit business_website wins over the legacy website field.
func (r SubmitClaimRequest) Overrides() models.ClaimOverrides {
	website := utils.TrimmedPtr(r.BusinessWebsite)
	if website == nil {
		website = utils.TrimmedPtr(r.Website)
	}
	return models.ClaimOverrides{
		Name:         utils.TrimmedPtr(r.BusinessName),
		Address:      utils.TrimmedPtr(r.BusinessAddress),
		Phone:        utils.TrimmedPtr(r.BusinessPhone),
		Website:      website,
		Category:     utils.TrimmedPtr(r.BusinessCategory),
		BusinessType: utils.TrimmedPtr(r.BusinessType),
		Description:  utils.TrimmedPtr(r.BusinessDescription),
		Tagline:      utils.TrimmedPtr(r.BusinessTagline),
		Hours:        utils.TrimmedPtr(r.BusinessHours),
	}
}

func optionalField(v url.Values, key string) *string {
	if _, ok := v[key]; !ok {
		return nil
	}
	s := v.Get(key)
	return utils.TrimmedPtr(&s)
}

// ----------------------
// Responses
// ----------------------

type ClaimResponse struct {
	Success    bool   `json:"success"`
	ClaimID    string `json:"claimId"`
	ClaimantID string `json:"claimantId"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// ClaimStatusResponse is returned by GET /api/v1/listings/{id}/claim-status.
type ClaimStatusResponse struct {
	Success        bool       `json:"success"`
	BusinessID     string     `json:"businessId"`
	ListingStatus  string     `json:"listingStatus"`
	PendingClaimID *string    `json:"pendingClaimId,omitempty"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	WasEdited      *bool      `json:"wasEdited,omitempty"`
}
