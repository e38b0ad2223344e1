package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimantAccount is the identity created for the person claiming a listing.
// It only outlives the request if the claim commits.
type ClaimantAccount struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	Tenant       string    `json:"tenant"`
	CreatedAt    time.Time `json:"created_at"`
}
