package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
)

// VerificationGate checks and consumes the one-time code bound to
// (email, purpose, businessID).
type VerificationGate interface {
	Validate(ctx context.Context, email, purpose, code string, businessID uuid.UUID) (*models.ClaimVerificationCode, error)

	// Consume is idempotent: consuming an already-deleted code is not an error.
	Consume(ctx context.Context, id uuid.UUID) error
}

// ClaimantMetadata is the display data stored with a new identity.
type ClaimantMetadata struct {
	FirstName string
	LastName  string
	Role      string
	Tenant    string
}

// IdentityProvisioner creates and destroys claimant identities.
// Create returns utils.ErrDuplicateAccount when the email is taken and
// utils.ErrProvisioningFailed for anything else.
type IdentityProvisioner interface {
	Create(ctx context.Context, email, password string, meta ClaimantMetadata) (string, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStore uploads bytes to a server-chosen path and returns a public URL.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, mime, path string) (string, error)
}

// ListingDirectory is the conditional-transition view of business listings.
type ListingDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.BusinessListing, error)
	TransitionIfEqual(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error)
	RevertIfEqual(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error)
}

// ClaimRecordWriter persists a committed claim.
type ClaimRecordWriter interface {
	Create(ctx context.Context, c *models.ClaimRequest) error
	GetPendingByBusinessID(ctx context.Context, businessID uuid.UUID) (*models.ClaimRequest, error)
}

// CompensationRecorder keeps failed rollback steps for manual reconciliation.
type CompensationRecorder interface {
	Create(ctx context.Context, f *models.ClaimCompensationFailure) error
}

// ClaimEvent is what notifiers receive after a claim commits.
type ClaimEvent struct {
	ClaimID      uuid.UUID
	ClaimantID   string
	BusinessID   uuid.UUID
	BusinessName string
	Tenant       string
	Email        string
	FirstName    string
	LastName     string
	WasEdited    bool
}

// ClaimNotifier delivers best-effort notifications. Errors are logged by
// the caller and never affect the claim.
type ClaimNotifier interface {
	Send(ctx context.Context, event ClaimEvent) error
}
