package testhelpers

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

// TestHelper encapsulates what the claim integration tests need: the
// running service's URL, a DB pool on the isolated role, and repositories.
type TestHelper struct {
	T       *testing.T
	Ctx     context.Context
	BaseURL string
	DB      *pgxpool.Pool

	// Hosts used to address the service as a given tenant.
	TenantBaseDomain string

	// From ldflags
	AppName         string
	UniqueRunNumber string
	UniqueRunnerID  string

	// Repositories
	ListingRepo      repositories.BusinessListingRepository
	CodeRepo         repositories.ClaimVerificationRepository
	ClaimantRepo     repositories.ClaimantAccountRepository
	ClaimRepo        repositories.ClaimRequestRepository
	CompensationRepo repositories.ClaimCompensationFailureRepository
}

// NewTestHelper loads secrets, connects to the DB as the isolated role and
// builds repositories. Call it once from TestMain.
func NewTestHelper(t *testing.T, appName, uniqueRunID, uniqueRunNum string) *TestHelper {
	baseURL := os.Getenv("APP_URL_FROM_ANYWHERE")
	if baseURL == "" {
		log.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	env := os.Getenv("ENV")
	if env == "" {
		log.Fatal("ENV env var is missing")
	}
	baseDomain := os.Getenv("TENANT_BASE_DOMAIN")
	if baseDomain == "" {
		log.Fatal("TENANT_BASE_DOMAIN env var is missing")
	}

	client, err := utils.NewBWSSecretsClient()
	require.NoError(t, err, "Failed to init BWSSecretsClient")
	defer client.Close()

	appSecrets, err := client.GetBWSSecrets(fmt.Sprintf("%s-%s", appName, env))
	require.NoError(t, err)
	dbURL, err := appSecrets.Require("DB_URL")
	require.NoError(t, err)

	effectiveURL, err := utils.WithIsolatedRole(dbURL, uniqueRunID, uniqueRunNum)
	require.NoError(t, err)

	ctx := context.Background()
	dbPool, err := pgxpool.Connect(ctx, effectiveURL)
	require.NoError(t, err)
	t.Cleanup(func() { dbPool.Close() })

	return &TestHelper{
		T:                t,
		Ctx:              ctx,
		BaseURL:          baseURL,
		DB:               dbPool,
		TenantBaseDomain: baseDomain,
		AppName:          appName,
		UniqueRunnerID:   uniqueRunID,
		UniqueRunNumber:  uniqueRunNum,
		ListingRepo:      repositories.NewBusinessListingRepository(dbPool),
		CodeRepo:         repositories.NewClaimVerificationRepository(dbPool),
		ClaimantRepo:     repositories.NewClaimantAccountRepository(dbPool),
		ClaimRepo:        repositories.NewClaimRequestRepository(dbPool),
		CompensationRepo: repositories.NewClaimCompensationFailureRepository(dbPool),
	}
}

// TenantHost is the Host header that resolves to tenant.
func (h *TestHelper) TenantHost(tenant string) string {
	return tenant + "." + h.TenantBaseDomain
}
