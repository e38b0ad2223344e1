package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/dtos"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// ---------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------

type fakeListings struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]*models.BusinessListing
	transitions int
	reverts     int
	revertErr   error
	// afterLock runs once the lock is taken, before TransitionIfEqual returns.
	afterLock func()
	// hasPendingClaim mirrors the repository's NOT EXISTS guard on revert.
	hasPendingClaim func(id uuid.UUID) bool
}

func newFakeListings(listings ...*models.BusinessListing) *fakeListings {
	f := &fakeListings{rows: map[uuid.UUID]*models.BusinessListing{}}
	for _, l := range listings {
		f.rows[l.ID] = l
	}
	return f
}

func (f *fakeListings) GetByID(_ context.Context, id uuid.UUID) (*models.BusinessListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListings) TransitionIfEqual(_ context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error) {
	f.mu.Lock()
	l, ok := f.rows[id]
	if !ok || l.Status != from {
		f.mu.Unlock()
		return 0, nil
	}
	l.Status = to
	l.RowVersion++
	f.transitions++
	hook := f.afterLock
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return 1, nil
}

func (f *fakeListings) RevertIfEqual(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverts++
	if f.revertErr != nil {
		return 0, f.revertErr
	}
	l, ok := f.rows[id]
	if !ok || l.Status != from {
		return 0, nil
	}
	if f.hasPendingClaim != nil && f.hasPendingClaim(id) {
		return 0, nil
	}
	l.Status = to
	l.RowVersion++
	return 1, nil
}

func (f *fakeListings) status(id uuid.UUID) models.ListingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Status
}

func (f *fakeListings) setStatus(id uuid.UUID, s models.ListingStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id].Status = s
}

// ---------------------------------------------------------------------
// Verification gate
// ---------------------------------------------------------------------

type fakeGate struct {
	mu         sync.Mutex
	code       string
	validErr   error
	consumed   []uuid.UUID
	consumeErr error
}

func (g *fakeGate) Validate(_ context.Context, email, purpose, code string, businessID uuid.UUID) (*models.ClaimVerificationCode, error) {
	if g.validErr != nil {
		return nil, g.validErr
	}
	if code != g.code {
		return nil, utils.ErrVerificationFailed
	}
	return &models.ClaimVerificationCode{
		ID:               uuid.New(),
		Email:            email,
		Purpose:          purpose,
		VerificationCode: code,
		BusinessID:       businessID,
		ExpiresAt:        time.Now().Add(time.Hour),
	}, nil
}

func (g *fakeGate) Consume(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consumed = append(g.consumed, id)
	return g.consumeErr
}

// ---------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------

type fakeIdentity struct {
	mu        sync.Mutex
	accounts  map[string]string // id -> email
	createErr error
	deleteErr error
	deleted   []string
	lastMeta  ClaimantMetadata
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: map[string]string{}}
}

func (f *fakeIdentity) Create(_ context.Context, email, _ string, meta ClaimantMetadata) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	for _, e := range f.accounts {
		if e == email {
			return "", utils.ErrDuplicateAccount
		}
	}
	id := uuid.NewString()
	f.accounts[id] = email
	f.lastMeta = meta
	return id, nil
}

func (f *fakeIdentity) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeIdentity) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

// ---------------------------------------------------------------------
// Object store
// ---------------------------------------------------------------------

type fakeStore struct {
	mu      sync.Mutex
	paths   []string
	failErr error
	// onUpload runs before each upload; a non-nil return fails it.
	onUpload func(ctx context.Context, path string) error
}

func (s *fakeStore) Upload(ctx context.Context, _ []byte, mime, path string) (string, error) {
	if s.onUpload != nil {
		if err := s.onUpload(ctx, path); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("unexpected mime %q", mime)
	}
	s.paths = append(s.paths, path)
	return "https://storage.googleapis.com/test-bucket/" + path, nil
}

func (s *fakeStore) uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// ---------------------------------------------------------------------
// Claim records and compensation failures
// ---------------------------------------------------------------------

type fakeClaims struct {
	mu      sync.Mutex
	records []*models.ClaimRequest
	err     error
	// commitErr is returned after the record is stored, like a commit
	// whose reply never reached the caller.
	commitErr error
	lookupErr error
}

func (f *fakeClaims) Create(_ context.Context, c *models.ClaimRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, r := range f.records {
		if r.BusinessID == c.BusinessID && r.Status == models.ClaimStatusPending {
			return repositories.ErrPendingClaimExists
		}
	}
	f.records = append(f.records, c)
	return f.commitErr
}

func (f *fakeClaims) GetPendingByBusinessID(_ context.Context, businessID uuid.UUID) (*models.ClaimRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, r := range f.records {
		if r.BusinessID == businessID && r.Status == models.ClaimStatusPending {
			return r, nil
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeClaims) hasPending(businessID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.BusinessID == businessID && r.Status == models.ClaimStatusPending {
			return true
		}
	}
	return false
}

func (f *fakeClaims) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeCompensations struct {
	mu       sync.Mutex
	failures []*models.ClaimCompensationFailure
	err      error
}

func (f *fakeCompensations) Create(_ context.Context, cf *models.ClaimCompensationFailure) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.failures = append(f.failures, cf)
	return nil
}

// ---------------------------------------------------------------------
// Notifier and rate limiter
// ---------------------------------------------------------------------

type fakeNotifier struct {
	mu     sync.Mutex
	events []ClaimEvent
	err    error
}

func (n *fakeNotifier) Send(_ context.Context, e ClaimEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

type fakeRateLimiter struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (r *fakeRateLimiter) CheckClaimRateLimits(context.Context, string, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

// ---------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------

const (
	testCode   = "482913"
	testTenant = "north"
)

var errBoom = errors.New("boom")

type claimHarness struct {
	listing       *models.BusinessListing
	listings      *fakeListings
	gate          *fakeGate
	identity      *fakeIdentity
	store         *fakeStore
	claims        *fakeClaims
	compensations *fakeCompensations
	notifier      *fakeNotifier
	limiter       *fakeRateLimiter
	svc           *ClaimService
}

func testConfig() *config.Config {
	return &config.Config{
		OrganizationName:    utils.OrganizationName,
		ClaimTimeout:        5 * time.Second,
		CompensationTimeout: 5 * time.Second,
		MaxLogoBytes:        config.DefaultMaxLogoBytes,
		MaxHeroImageBytes:   config.DefaultMaxHeroImageBytes,
	}
}

func newClaimHarness() *claimHarness {
	listing := &models.BusinessListing{
		ID:     uuid.New(),
		Tenant: testTenant,
		Status: models.ListingStatusUnclaimed,
		Name:   "Harbour Fish Bar",
	}
	h := &claimHarness{
		listing:       listing,
		listings:      newFakeListings(listing),
		gate:          &fakeGate{code: testCode},
		identity:      newFakeIdentity(),
		store:         &fakeStore{},
		claims:        &fakeClaims{},
		compensations: &fakeCompensations{},
		notifier:      &fakeNotifier{},
		limiter:       &fakeRateLimiter{},
	}
	h.listings.hasPendingClaim = h.claims.hasPending
	cfg := testConfig()
	ingestor := NewAssetIngestor(h.store, AssetLimits{
		MaxLogoBytes:      cfg.MaxLogoBytes,
		MaxHeroImageBytes: cfg.MaxHeroImageBytes,
	})
	h.svc = NewClaimService(cfg, h.gate, h.listings, h.identity, ingestor,
		h.claims, h.compensations, h.notifier, h.limiter)
	return h
}

func (h *claimHarness) request(email string) dtos.SubmitClaimRequest {
	return dtos.SubmitClaimRequest{
		Email:            email,
		Password:         "correct-horse-battery",
		FirstName:        "Ada",
		LastName:         "Lovelace",
		BusinessID:       h.listing.ID.String(),
		VerificationCode: testCode,
	}
}

func pngAsset(kind AssetKind, size int) Asset {
	return Asset{Kind: kind, MIME: "image/png", Filename: string(kind) + ".png", Data: make([]byte, size)}
}
