package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the claim lifecycle of an imported business listing.
type ListingStatus string

const (
	ListingStatusUnclaimed    ListingStatus = "unclaimed"
	ListingStatusPendingClaim ListingStatus = "pending_claim"
	ListingStatusClaimed      ListingStatus = "claimed"
	ListingStatusRejected     ListingStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusClaimed || s == ListingStatusRejected
}

// CanTransition reports whether from→to is an edge of the listing state
// machine. pending_claim→unclaimed is only taken by saga rollback.
func CanTransition(from, to ListingStatus) bool {
	switch from {
	case ListingStatusUnclaimed:
		return to == ListingStatusPendingClaim
	case ListingStatusPendingClaim:
		return to == ListingStatusClaimed || to == ListingStatusRejected || to == ListingStatusUnclaimed
	default:
		return false
	}
}

// BusinessListing is created by the directory import and only mutated here
// during claim attempts. Tenant is immutable after creation.
type BusinessListing struct {
	Versioned

	ID           uuid.UUID     `json:"id"`
	Tenant       string        `json:"tenant"`
	Status       ListingStatus `json:"status"`
	Name         string        `json:"name"`
	Address      string        `json:"address"`
	Phone        *string       `json:"phone,omitempty"`
	Website      *string       `json:"website,omitempty"`
	Email        *string       `json:"email,omitempty"`
	Category     *string       `json:"category,omitempty"`
	BusinessType *string       `json:"business_type,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Tagline      *string       `json:"tagline,omitempty"`
	Hours        *string       `json:"hours,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
