package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/dtos"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/routes"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/services"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-middleware"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-models"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// ---------------------------------------------------------------------
// Minimal collaborators
// ---------------------------------------------------------------------

type stubGate struct{}

func (stubGate) Validate(_ context.Context, email, purpose, code string, businessID uuid.UUID) (*models.ClaimVerificationCode, error) {
	if code != "482913" {
		return nil, utils.ErrVerificationFailed
	}
	return &models.ClaimVerificationCode{ID: uuid.New(), Email: email, Purpose: purpose, BusinessID: businessID}, nil
}

func (stubGate) Consume(context.Context, uuid.UUID) error { return nil }

type memListings struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.BusinessListing
}

func (m *memListings) GetByID(_ context.Context, id uuid.UUID) (*models.BusinessListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *memListings) TransitionIfEqual(_ context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.rows[id]; ok && l.Status == from {
		l.Status = to
		return 1, nil
	}
	return 0, nil
}

func (m *memListings) RevertIfEqual(ctx context.Context, id uuid.UUID, from, to models.ListingStatus) (int64, error) {
	return m.TransitionIfEqual(ctx, id, from, to)
}

func (m *memListings) status(id uuid.UUID) models.ListingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

type memIdentity struct{ created, deleted int }

func (m *memIdentity) Create(context.Context, string, string, services.ClaimantMetadata) (string, error) {
	m.created++
	return uuid.NewString(), nil
}

func (m *memIdentity) Delete(context.Context, string) error {
	m.deleted++
	return nil
}

type memStore struct{ paths []string }

func (m *memStore) Upload(_ context.Context, _ []byte, _ string, path string) (string, error) {
	m.paths = append(m.paths, path)
	return "https://cdn.test/" + path, nil
}

type memClaims struct{ records []*models.ClaimRequest }

func (m *memClaims) Create(_ context.Context, c *models.ClaimRequest) error {
	m.records = append(m.records, c)
	return nil
}

func (m *memClaims) GetPendingByBusinessID(_ context.Context, id uuid.UUID) (*models.ClaimRequest, error) {
	for _, c := range m.records {
		if c.BusinessID == id {
			return c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memCompensations struct{}

func (memCompensations) Create(context.Context, *models.ClaimCompensationFailure) error { return nil }

// ---------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------

type controllerFixture struct {
	listingID uuid.UUID
	listings  *memListings
	identity  *memIdentity
	store     *memStore
	claims    *memClaims
	router    *mux.Router
}

func newControllerFixture(maxFormBytes int64) *controllerFixture {
	listingID := uuid.New()
	f := &controllerFixture{
		listingID: listingID,
		listings: &memListings{rows: map[uuid.UUID]*models.BusinessListing{
			listingID: {ID: listingID, Tenant: "north", Status: models.ListingStatusUnclaimed, Name: "Harbour Fish Bar"},
		}},
		identity: &memIdentity{},
		store:    &memStore{},
		claims:   &memClaims{},
	}

	cfg := &config.Config{
		ClaimTimeout:        5 * time.Second,
		CompensationTimeout: 5 * time.Second,
		MaxLogoBytes:        1 << 10,
		MaxHeroImageBytes:   2 << 10,
	}
	ingestor := services.NewAssetIngestor(f.store, services.AssetLimits{
		MaxLogoBytes:      cfg.MaxLogoBytes,
		MaxHeroImageBytes: cfg.MaxHeroImageBytes,
	})
	claimSvc := services.NewClaimService(cfg, stubGate{}, f.listings, f.identity, ingestor,
		f.claims, memCompensations{}, nil, nil)
	listingSvc := services.NewListingService(f.listings, f.claims)

	r := mux.NewRouter()
	scoped := r.NewRoute().Subrouter()
	scoped.Use(middleware.TenantMiddleware(middleware.NewTenantResolver(nil, "qwikker.test")))
	scoped.HandleFunc(routes.Claims, NewClaimController(claimSvc, maxFormBytes).SubmitClaimHandler).Methods(http.MethodPost)
	scoped.HandleFunc(routes.ListingClaimStatus, NewListingController(listingSvc).GetClaimStatusHandler).Methods(http.MethodGet)
	f.router = r
	return f
}

func (f *controllerFixture) fields() map[string]string {
	return map[string]string{
		"email":             "ada@example.com",
		"password":          "correct-horse-battery",
		"first_name":        "Ada",
		"last_name":         "Lovelace",
		"business_id":       f.listingID.String(),
		"verification_code": "482913",
	}
}

type formFile struct {
	field, name, mime string
	data              []byte
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func pngBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, pngHeader)
	return b
}

func multipartRequest(t *testing.T, host string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.mime)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, routes.Claims, &buf)
	req.Host = host
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(f *controllerFixture, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body
}

// ---------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------

func TestSubmitClaimHandler_Success(t *testing.T) {
	f := newControllerFixture(1 << 20)
	fields := f.fields()
	fields["website"] = "https://harbourfish.example"
	req := multipartRequest(t, "north.qwikker.test", fields,
		formFile{"logo", "logo.png", "image/png", pngBytes(512)})

	rr := serve(f, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp dtos.ClaimResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ClaimID)
	assert.Equal(t, "pending_claim", resp.Status)

	assert.Equal(t, models.ListingStatusPendingClaim, f.listings.status(f.listingID))
	require.Len(t, f.claims.records, 1)
	rec := f.claims.records[0]
	require.NotNil(t, rec.Overrides.Website)
	assert.Equal(t, "https://harbourfish.example", *rec.Overrides.Website)
	assert.True(t, rec.WasEdited)
	require.Len(t, f.store.paths, 1)
	assert.True(t, strings.HasSuffix(f.store.paths[0], ".png"))
}

func TestSubmitClaimHandler_URLEncodedFormWithoutFiles(t *testing.T) {
	f := newControllerFixture(1 << 20)
	form := url.Values{}
	for k, v := range f.fields() {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, routes.Claims, strings.NewReader(form.Encode()))
	req.Host = "north.qwikker.test"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := serve(f, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Empty(t, f.store.paths)
}

func TestSubmitClaimHandler_UnknownTenant(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "www.qwikker.test", f.fields()))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, utils.ErrCodeUnknownTenant, decodeError(t, rr).Code)
	assert.Zero(t, f.identity.created)
}

func TestSubmitClaimHandler_TenantMismatch(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "south.qwikker.test", f.fields()))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, utils.ErrCodeForbidden, decodeError(t, rr).Code)
	assert.Equal(t, models.ListingStatusUnclaimed, f.listings.status(f.listingID))
}

func TestSubmitClaimHandler_ValidationErrors(t *testing.T) {
	f := newControllerFixture(1 << 20)
	fields := f.fields()
	delete(fields, "email")
	fields["business_id"] = "not-a-uuid"

	rr := serve(f, multipartRequest(t, "north.qwikker.test", fields))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	body := decodeError(t, rr)
	assert.Equal(t, utils.ErrCodeValidation, body.Code)
	raw, err := json.Marshal(body.Details)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"field":"email"`)
	assert.Contains(t, string(raw), `"field":"business_id"`)
	assert.Zero(t, f.identity.created)
}

func TestSubmitClaimHandler_WrongCode(t *testing.T) {
	f := newControllerFixture(1 << 20)
	fields := f.fields()
	fields["verification_code"] = "000000"

	rr := serve(f, multipartRequest(t, "north.qwikker.test", fields))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, utils.ErrCodeVerificationFailed, decodeError(t, rr).Code)
}

func TestSubmitClaimHandler_OversizedHeroRollsBack(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"hero_image", "hero.png", "image/png", pngBytes(4 << 10)}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, utils.ErrCodeUploadFailed, decodeError(t, rr).Code)
	assert.Equal(t, models.ListingStatusUnclaimed, f.listings.status(f.listingID))
	assert.Equal(t, 1, f.identity.deleted)
	assert.Empty(t, f.claims.records)
}

func TestSubmitClaimHandler_DuplicateFilePart(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"logo", "a.png", "image/png", pngBytes(16)},
		formFile{"logo", "b.png", "image/png", pngBytes(16)}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, utils.ErrCodeInvalidPayload, decodeError(t, rr).Code)
}

func TestSubmitClaimHandler_BodyTooLarge(t *testing.T) {
	f := newControllerFixture(1 << 10)
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"logo", "logo.png", "image/png", pngBytes(8 << 10)}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Zero(t, f.identity.created)
}

func TestReadAsset_SniffsContentType(t *testing.T) {
	f := newControllerFixture(1 << 20)
	// PNG bytes with a generic declared type.
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"logo", "logo", "application/octet-stream", pngBytes(64)}))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, f.store.paths, 1)
	assert.True(t, strings.HasSuffix(f.store.paths[0], ".png"))
}

func TestReadAsset_NonImageRejected(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"logo", "logo.pdf", "application/pdf", []byte("%PDF-1.7 not an image")}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, utils.ErrCodeUploadFailed, decodeError(t, rr).Code)
	assert.Equal(t, models.ListingStatusUnclaimed, f.listings.status(f.listingID))
	assert.Empty(t, f.store.paths)
}

// The declared type never rescues bytes that sniff as something else.
func TestReadAsset_DeclaredImageTypeDoesNotOverrideSniffing(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"logo", "logo.png", "image/png", []byte("<html><script>alert(1)</script></html>")}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, utils.ErrCodeUploadFailed, decodeError(t, rr).Code)
	assert.Equal(t, models.ListingStatusUnclaimed, f.listings.status(f.listingID))
	assert.Empty(t, f.store.paths)
}

func TestReadAsset_SVGRejectedByDefault(t *testing.T) {
	f := newControllerFixture(1 << 20)
	rr := serve(f, multipartRequest(t, "north.qwikker.test", f.fields(),
		formFile{"logo", "logo.svg", "image/svg+xml", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)}))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, utils.ErrCodeUploadFailed, decodeError(t, rr).Code)
	assert.Empty(t, f.store.paths)
}

func TestGetClaimStatusHandler(t *testing.T) {
	f := newControllerFixture(1 << 20)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+f.listingID.String()+"/claim-status", nil)
	req.Host = "north.qwikker.test"
	rr := serve(f, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dtos.ClaimStatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "unclaimed", resp.ListingStatus)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+f.listingID.String()+"/claim-status", nil)
	req.Host = "south.qwikker.test"
	rr = serve(f, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthCheckHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthController(stubPinger{}).HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, routes.Health, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "OK")

	rr = httptest.NewRecorder()
	NewHealthController(stubPinger{err: context.DeadlineExceeded}).HealthCheckHandler(rr, httptest.NewRequest(http.MethodGet, routes.Health, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
