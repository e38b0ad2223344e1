package models

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// ClaimOverrides are the listing fields the claimant edited. Nil means the
// claimant kept the imported value.
type ClaimOverrides struct {
	Name         *string `json:"business_name,omitempty"`
	Address      *string `json:"business_address,omitempty"`
	Phone        *string `json:"business_phone,omitempty"`
	Website      *string `json:"business_website,omitempty"`
	Category     *string `json:"business_category,omitempty"`
	BusinessType *string `json:"business_type,omitempty"`
	Description  *string `json:"business_description,omitempty"`
	Tagline      *string `json:"business_tagline,omitempty"`
	Hours        *string `json:"business_hours,omitempty"`
}

// Any reports whether at least one override is present.
func (o ClaimOverrides) Any() bool {
	for _, f := range []*string{
		o.Name, o.Address, o.Phone, o.Website, o.Category,
		o.BusinessType, o.Description, o.Tagline, o.Hours,
	} {
		if f != nil {
			return true
		}
	}
	return false
}

// ClaimRequest is the durable record of a claim awaiting admin review.
type ClaimRequest struct {
	ID           uuid.UUID      `json:"id"`
	BusinessID   uuid.UUID      `json:"business_id"`
	ClaimantID   uuid.UUID      `json:"claimant_id"`
	Tenant       string         `json:"tenant"`
	Status       ClaimStatus    `json:"status"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Overrides    ClaimOverrides `json:"overrides"`
	LogoURL      *string        `json:"logo_url,omitempty"`
	HeroImageURL *string        `json:"hero_image_url,omitempty"`
	WasEdited    bool           `json:"was_edited"`
}

// ComputeWasEdited derives WasEdited from the overrides and stores it.
func (c *ClaimRequest) ComputeWasEdited() bool {
	c.WasEdited = c.Overrides.Any()
	return c.WasEdited
}
