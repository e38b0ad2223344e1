// shared/go-utils/errors.go
package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrValidation         = errors.New("validation_error")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrVerificationFailed = errors.New("verification_failed")
	ErrIsolationViolation = errors.New("tenant_isolation_violation")
	ErrListingNotFound    = errors.New("listing_not_found")
	ErrClaimConflict      = errors.New("claim_conflict")
	ErrDuplicateAccount   = errors.New("duplicate_account")
	ErrProvisioningFailed = errors.New("provisioning_failed")
	ErrUploadFailed       = errors.New("upload_failed")
	ErrPersistenceFailed  = errors.New("persistence_failed")
	ErrNotificationFailed = errors.New("notification_failed")

	// For rate limiting
	ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

	// For external service failures (e.g., Twilio, SendGrid, GCS)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// AppError carries the HTTP status, public code and message from services to
// controllers. Err holds the internal cause and is never sent to the client.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
