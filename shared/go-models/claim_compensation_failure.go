package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimCompensationFailure records a rollback step that itself failed, for
// manual reconciliation. Rows are never retried automatically.
type ClaimCompensationFailure struct {
	ID         uuid.UUID  `json:"id"`
	BusinessID uuid.UUID  `json:"business_id"`
	ClaimantID *uuid.UUID `json:"claimant_id,omitempty"`
	Step       string     `json:"step"`
	Cause      string     `json:"cause"`
	Error      string     `json:"error"`
	CreatedAt  time.Time  `json:"created_at"`
}
