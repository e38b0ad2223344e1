package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/dtos"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// EmailValidatorFunc reports whether an address is deliverable.
type EmailValidatorFunc func(ctx context.Context, email string) (bool, error)

// ClaimService runs the claim saga: verify, lock, provision, ingest,
// persist, consume, notify. Every failure after the lock is rolled back
// before the error is returned.
type ClaimService struct {
	cfg           *config.Config
	gate          VerificationGate
	listings      ListingDirectory
	identity      IdentityProvisioner
	ingestor      *AssetIngestor
	claims        ClaimRecordWriter
	compensations CompensationRecorder
	notifier      ClaimNotifier
	rateLimiter   RateLimiterService
	emailCheck    EmailValidatorFunc
	now           func() time.Time
}

func NewClaimService(
	cfg *config.Config,
	gate VerificationGate,
	listings ListingDirectory,
	identity IdentityProvisioner,
	ingestor *AssetIngestor,
	claims ClaimRecordWriter,
	compensations CompensationRecorder,
	notifier ClaimNotifier,
	rateLimiter RateLimiterService,
) *ClaimService {
	return &ClaimService{
		cfg:           cfg,
		gate:          gate,
		listings:      listings,
		identity:      identity,
		ingestor:      ingestor,
		claims:        claims,
		compensations: compensations,
		notifier:      notifier,
		rateLimiter:   rateLimiter,
		now:           time.Now,
	}
}

// SetEmailValidator enables the deliverability check on claimant emails.
func (s *ClaimService) SetEmailValidator(fn EmailValidatorFunc) {
	s.emailCheck = fn
}

// SubmitClaim processes one claim for the tenant resolved from the request
// host. Errors are *utils.AppError carrying the public status and code.
func (s *ClaimService) SubmitClaim(
	ctx context.Context,
	tenant, clientIP string,
	req dtos.SubmitClaimRequest,
	assets []Asset,
) (*dtos.ClaimResponse, error) {
	start := time.Now()
	resp, err := s.submit(ctx, tenant, clientIP, req, assets)

	outcome := claimOutcome(err)
	claimOutcomes.WithLabelValues(outcome).Inc()
	claimDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return resp, err
}

func (s *ClaimService) submit(
	ctx context.Context,
	tenant, clientIP string,
	req dtos.SubmitClaimRequest,
	assets []Asset,
) (*dtos.ClaimResponse, error) {
	tenant = utils.NormalizeKey(tenant)
	email := utils.NormalizeKey(req.Email)

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		return nil, claimError(http.StatusBadRequest, utils.ErrCodeValidation, "Invalid business ID", fmt.Errorf("%w: %v", utils.ErrValidation, err))
	}

	log := utils.Logger.WithFields(logrus.Fields{
		"business_id": businessID.String(),
		"email":       email,
		"tenant":      tenant,
	})

	if s.rateLimiter != nil {
		if err := s.rateLimiter.CheckClaimRateLimits(ctx, clientIP, email); err != nil {
			if errors.Is(err, utils.ErrRateLimitExceeded) {
				return nil, claimError(http.StatusTooManyRequests, utils.ErrCodeRateLimitExceeded, "Too many claim attempts. Please try again later.", err)
			}
			return nil, claimError(http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to process claim", err)
		}
	}

	if s.emailCheck != nil {
		ok, err := s.emailCheck(ctx, email)
		if err != nil {
			return nil, claimError(http.StatusInternalServerError, utils.ErrCodeExternalServiceFailure, "Unable to verify email address", err)
		}
		if !ok {
			return nil, claimError(http.StatusBadRequest, utils.ErrCodeValidation, "Invalid email address", utils.ErrInvalidEmail)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ClaimTimeout)
	defer cancel()

	// Verification code
	code, err := s.gate.Validate(ctx, email, utils.ClaimVerificationPurpose, req.VerificationCode, businessID)
	if err != nil {
		if errors.Is(err, utils.ErrVerificationFailed) {
			log.Info("Claim verification failed")
			return nil, claimError(http.StatusBadRequest, utils.ErrCodeVerificationFailed, "Invalid or expired verification code", err)
		}
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to process claim", err)
	}

	// Listing + tenant isolation
	listing, err := s.listings.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, claimError(http.StatusNotFound, utils.ErrCodeNotFound, "Business not found", utils.ErrListingNotFound)
		}
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to process claim", err)
	}
	if err := enforceTenantIsolation("submit_claim", businessID, tenant, listing.Tenant); err != nil {
		return nil, claimError(http.StatusForbidden, utils.ErrCodeForbidden, "Access denied", err)
	}
	if listing.Status != models.ListingStatusUnclaimed {
		return nil, claimError(http.StatusConflict, utils.ErrCodeConflict, "This business has already been claimed", utils.ErrClaimConflict)
	}

	// Lock
	affected, err := s.listings.TransitionIfEqual(ctx, businessID, models.ListingStatusUnclaimed, models.ListingStatusPendingClaim)
	if err != nil {
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to process claim", err)
	}
	if affected == 0 {
		log.Info("Claim lock lost to a concurrent request")
		return nil, claimError(http.StatusConflict, utils.ErrCodeConflict, "This business has already been claimed", utils.ErrClaimConflict)
	}

	comp := newClaimCompensator(businessID, email, s.compensations, s.cfg.CompensationTimeout)
	comp.push(stepRevertLock, func(ctx context.Context) error {
		n, err := s.listings.RevertIfEqual(ctx, businessID, models.ListingStatusPendingClaim, models.ListingStatusUnclaimed)
		if err != nil {
			return err
		}
		if n == 0 {
			log.Warn("Listing not reverted: it left pending_claim or has a pending claim")
		}
		return nil
	})

	// Identity
	claimantID, err := s.identity.Create(ctx, email, req.Password, ClaimantMetadata{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      utils.ClaimantRoleBusinessOwner,
		Tenant:    tenant,
	})
	if err != nil {
		_ = comp.Rollback(ctx, err)
		if errors.Is(err, utils.ErrDuplicateAccount) {
			return nil, claimError(http.StatusBadRequest, utils.ErrCodeDuplicateAccount, "An account with this email already exists", err)
		}
		log.WithError(err).Error("Claimant provisioning failed")
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeProvisioningFailed, "Unable to create your account", err)
	}
	comp.setClaimant(claimantID)
	comp.push(stepDeleteIdentity, func(ctx context.Context) error {
		return s.identity.Delete(ctx, claimantID)
	})
	log = log.WithField("claimant_id", claimantID)

	// Assets
	urls, err := s.ingestor.Ingest(ctx, tenant, businessID, assets)
	if err != nil {
		log.WithError(err).Error("Claim asset ingestion failed")
		_ = comp.Rollback(ctx, err)
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodeUploadFailed, "Unable to upload images", err)
	}

	// Claim record
	claim := &models.ClaimRequest{
		ID:           uuid.New(),
		BusinessID:   businessID,
		Tenant:       tenant,
		Status:       models.ClaimStatusPending,
		SubmittedAt:  s.now().UTC(),
		Overrides:    req.Overrides(),
		LogoURL:      urls.LogoURL,
		HeroImageURL: urls.HeroImageURL,
	}
	claim.ComputeWasEdited()

	if err := s.persist(ctx, claim, claimantID); err != nil && !s.committedDespite(ctx, claim, err) {
		// Uploaded assets are kept; see DESIGN.md.
		log.WithFields(logrus.Fields{
			"orphan_logo_url": utils.Val(urls.LogoURL),
			"orphan_hero_url": utils.Val(urls.HeroImageURL),
		}).WithError(err).Error("Claim record write failed")
		_ = comp.Rollback(ctx, err)
		if errors.Is(err, repositories.ErrPendingClaimExists) {
			return nil, claimError(http.StatusConflict, utils.ErrCodeConflict, "This business has already been claimed", utils.ErrClaimConflict)
		}
		return nil, claimError(http.StatusInternalServerError, utils.ErrCodePersistenceFailed, "Unable to save your claim", err)
	}

	// Committed. Nothing below may fail the claim, and the claim deadline
	// may already have passed.
	postCtx, cancelPost := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CompensationTimeout)
	defer cancelPost()
	if err := s.gate.Consume(postCtx, code.ID); err != nil {
		log.WithError(err).Warn("Failed to consume claim verification code")
	}
	s.notify(ctx, ClaimEvent{
		ClaimID:      claim.ID,
		ClaimantID:   claimantID,
		BusinessID:   businessID,
		BusinessName: utils.Val(claim.Overrides.Name),
		Tenant:       tenant,
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		WasEdited:    claim.WasEdited,
	}, listing.Name)

	log.WithField("claim_id", claim.ID.String()).Info("Claim submitted")
	return &dtos.ClaimResponse{
		Success:    true,
		ClaimID:    claim.ID.String(),
		ClaimantID: claimantID,
		Status:     string(models.ListingStatusPendingClaim),
		Message:    "Claim submitted for review",
	}, nil
}

func (s *ClaimService) persist(ctx context.Context, claim *models.ClaimRequest, claimantID string) error {
	uid, err := uuid.Parse(claimantID)
	if err != nil {
		return fmt.Errorf("%w: claimant id %q is not a uuid", utils.ErrPersistenceFailed, claimantID)
	}
	claim.ClaimantID = uid
	if err := s.claims.Create(ctx, claim); err != nil {
		return fmt.Errorf("%w: %w", utils.ErrPersistenceFailed, err)
	}
	return nil
}

// committedDespite reports whether a claim write that returned err was
// committed anyway, e.g. the deadline fired while the commit reply was in
// flight. Rolling back such a claim would leave a pending claim on an
// unclaimed listing.
func (s *ClaimService) committedDespite(ctx context.Context, claim *models.ClaimRequest, err error) bool {
	var pgErr *pgconn.PgError
	if errors.Is(err, repositories.ErrPendingClaimExists) || errors.As(err, &pgErr) {
		return false
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CompensationTimeout)
	defer cancel()

	pending, lookupErr := s.claims.GetPendingByBusinessID(lctx, claim.BusinessID)
	if lookupErr != nil || pending.ID != claim.ID {
		return false
	}
	utils.Logger.WithFields(logrus.Fields{
		"business_id": claim.BusinessID.String(),
		"claim_id":    claim.ID.String(),
	}).WithError(err).Warn("Claim write reported an error but the claim is committed")
	return true
}

func (s *ClaimService) notify(ctx context.Context, event ClaimEvent, listingName string) {
	if s.notifier == nil {
		return
	}
	if event.BusinessName == "" {
		event.BusinessName = listingName
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CompensationTimeout)
	defer cancel()

	if err := s.notifier.Send(nctx, event); err != nil {
		utils.Logger.WithFields(logrus.Fields{
			"business_id": event.BusinessID.String(),
			"claim_id":    event.ClaimID.String(),
		}).WithError(err).Warn("Claim notification failed")
	}
}

func claimError(status int, code, msg string, err error) *utils.AppError {
	return &utils.AppError{StatusCode: status, Code: code, Message: msg, Err: err}
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, utils.ErrClaimConflict):
		return "conflict"
	case errors.Is(err, utils.ErrIsolationViolation):
		return "isolation_violation"
	case errors.Is(err, utils.ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, utils.ErrListingNotFound):
		return "not_found"
	case errors.Is(err, utils.ErrDuplicateAccount):
		return "duplicate_account"
	case errors.Is(err, utils.ErrUploadFailed):
		return "upload_failed"
	case errors.Is(err, utils.ErrPersistenceFailed):
		return "persistence_failed"
	case errors.Is(err, utils.ErrProvisioningFailed):
		return "provisioning_failed"
	case errors.Is(err, utils.ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, utils.ErrValidation), errors.Is(err, utils.ErrInvalidEmail):
		return "validation_error"
	default:
		return "internal_error"
	}
}
