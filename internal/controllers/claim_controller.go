package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/dtos"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/services"
	shared_dtos "github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-dtos"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-middleware"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

type ClaimController struct {
	claimService *services.ClaimService
	validate     *validator.Validate
	maxFormBytes int64
}

func NewClaimController(claimService *services.ClaimService, maxFormBytes int64) *ClaimController {
	return &ClaimController{
		claimService: claimService,
		validate:     validator.New(),
		maxFormBytes: maxFormBytes,
	}
}

// POST /api/v1/claims
func (c *ClaimController) SubmitClaimHandler(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeUnknownTenant, "Unknown tenant", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, c.maxFormBytes)
	if err := parseClaimForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > c.maxFormBytes {
			utils.RespondErrorWithCode(w, http.StatusRequestEntityTooLarge, utils.ErrCodeInvalidPayload, "Request body too large", nil, err)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid form payload", nil, err)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req := dtos.NewSubmitClaimRequestFromForm(r.PostForm)
	if err := c.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", formatValidationErrors(validationErrs))
		} else {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		}
		return
	}

	assets, err := readClaimAssets(r)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid file upload", nil, err)
		return
	}

	resp, err := c.claimService.SubmitClaim(r.Context(), tenant, utils.ClientIP(r), req, assets)
	if err != nil {
		utils.Logger.WithFields(logrus.Fields{
			"handler":     "SubmitClaimHandler",
			"business_id": req.BusinessID,
			"email":       utils.NormalizeKey(req.Email),
		}).WithError(err).Info("Claim rejected")
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func parseClaimForm(r *http.Request) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

var claimAssetFields = []struct {
	field string
	kind  services.AssetKind
}{
	{"logo", services.AssetKindLogo},
	{"hero_image", services.AssetKindHeroImage},
}

func readClaimAssets(r *http.Request) ([]services.Asset, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var assets []services.Asset
	for _, f := range claimAssetFields {
		headers := r.MultipartForm.File[f.field]
		if len(headers) == 0 {
			continue
		}
		if len(headers) > 1 {
			return nil, fmt.Errorf("only one %s file is allowed", f.field)
		}
		asset, err := readAsset(headers[0], f.kind)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// declaredOnlyImageTypes are image formats http.DetectContentType does not
// recognise. Only for these is the client's declared type used.
var declaredOnlyImageTypes = map[string]bool{
	"image/svg+xml": true,
	"image/avif":    true,
	"image/heic":    true,
}

// readAsset sniffs the content type. Bytes that sniff as something other
// than an image keep the sniffed type, so the ingestor rejects them, unless
// the declared type is one the sniffer cannot detect.
func readAsset(fh *multipart.FileHeader, kind services.AssetKind) (services.Asset, error) {
	f, err := fh.Open()
	if err != nil {
		return services.Asset{}, fmt.Errorf("opening %s: %w", kind, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return services.Asset{}, fmt.Errorf("reading %s: %w", kind, err)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		declared, _, _ := strings.Cut(fh.Header.Get("Content-Type"), ";")
		declared = strings.ToLower(strings.TrimSpace(declared))
		if declaredOnlyImageTypes[declared] {
			mime = declared
		}
	}
	return services.Asset{
		Kind:     kind,
		MIME:     mime,
		Filename: fh.Filename,
		Data:     data,
	}, nil
}

// formatValidationErrors converts validator errors into response details.
func formatValidationErrors(errs validator.ValidationErrors) []shared_dtos.ValidationErrorDetail {
	var details []shared_dtos.ValidationErrorDetail
	for _, err := range errs {
		field := formFieldName(err.StructField())
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field '%s' is required", field)
		case "email":
			message = fmt.Sprintf("Field '%s' must be a valid email address", field)
		case "uuid":
			message = fmt.Sprintf("Field '%s' must be a valid ID", field)
		case "min":
			message = fmt.Sprintf("Field '%s' must be at least %s in length", field, err.Param())
		case "max":
			message = fmt.Sprintf("Field '%s' must not exceed %s in length", field, err.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", field, err.Tag())
		}
		details = append(details, shared_dtos.ValidationErrorDetail{
			Field:   field,
			Message: message,
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}

var claimFormFieldNames = map[string]string{
	"Email":               "email",
	"Password":            "password",
	"FirstName":           "first_name",
	"LastName":            "last_name",
	"BusinessID":          "business_id",
	"VerificationCode":    "verification_code",
	"Website":             "website",
	"BusinessName":        "business_name",
	"BusinessAddress":     "business_address",
	"BusinessPhone":       "business_phone",
	"BusinessWebsite":     "business_website",
	"BusinessCategory":    "business_category",
	"BusinessType":        "business_type",
	"BusinessDescription": "business_description",
	"BusinessTagline":     "business_tagline",
	"BusinessHours":       "business_hours",
}

func formFieldName(structField string) string {
	if n, ok := claimFormFieldNames[structField]; ok {
		return n
	}
	return structField
}
