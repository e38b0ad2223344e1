// shared/go-utils/response.go
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload         = "invalid_payload"
	ErrCodeValidation             = "validation_error"
	ErrCodeVerificationFailed     = "verification_failed"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInternal               = "internal_server_error"
	ErrCodeNotFound               = "not_found"
	ErrCodeConflict               = "conflict"
	ErrCodeDuplicateAccount       = "duplicate_account"
	ErrCodeProvisioningFailed     = "provisioning_failed"
	ErrCodeUploadFailed           = "upload_failed"
	ErrCodePersistenceFailed      = "persistence_failed"
	ErrCodeRateLimitExceeded      = "rate_limit_exceeded"
	ErrCodeUnknownTenant          = "unknown_tenant"
	ErrCodeExternalServiceFailure = "external_service_failure"
)

// ErrorResponse is the generic error body. `Details` carries optional
// structured info such as per-field validation errors.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard
// code and message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	errBody := ErrorResponse{
		Success: false,
		Error:   publicMessage,
		Code:    errorCode,
	}
	if details != nil {
		errBody.Details = details
	}
	RespondWithJSON(w, status, errBody)

	logDevError(status, publicMessage, devErrs...)
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// logDevError logs the server-side view of an error response. 5xx are
// errors, everything else is a warning so 4xx noise does not page anyone.
func logDevError(status int, publicMessage string, devErrs ...error) {
	entry := Logger.WithField("status", status)
	if len(devErrs) > 0 && devErrs[0] != nil {
		entry = entry.WithFields(logrus.Fields{"error": devErrs[0].Error()})
	}
	if status >= http.StatusInternalServerError {
		entry.Error(publicMessage)
		return
	}
	entry.Warn(publicMessage)
}
