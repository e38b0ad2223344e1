package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	UniqueRunNumber  string
	UniqueRunnerID   string
	DBUrl            string
	LDSDKKey         string
	SendgridAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string
	GCSBucket        string
	GCSCredentials   []byte

	// Tenant resolution
	TenantHosts      map[string]string
	TenantBaseDomain string

	// Claim saga
	ClaimTimeout        time.Duration
	CompensationTimeout time.Duration
	MaxLogoBytes        int64
	MaxHeroImageBytes   int64
	MaxClaimFormBytes   int64
	MaxCodeAttempts     int

	// Rate limiting
	ClaimLimitPerIPPerHour    int
	ClaimLimitPerEmailPerHour int
	RateLimitWindow           time.Duration

	LDFlag_UsingIsolatedSchema       bool
	LDFlag_CORSHighSecurity          bool
	LDFlag_SendgridSandboxMode       bool
	LDFlag_SendgridFromEmail         string
	LDFlag_TwilioFromPhone           string
	LDFlag_ValidateEmailWithSendGrid bool
	LDFlag_ClaimOperatorAlertEmail   string
	LDFlag_ClaimOperatorAlertPhone   string
	LDFlag_AllowSVGClaimAssets       bool
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second

	DefaultClaimTimeout        = 45 * time.Second
	DefaultCompensationTimeout = 15 * time.Second
	DefaultMaxLogoBytes        = 5 << 20
	DefaultMaxHeroImageBytes   = 10 << 20
	DefaultMaxCodeAttempts     = 5

	DefaultClaimLimitPerIPPerHour    = 20
	DefaultClaimLimitPerEmailPerHour = 5
	DefaultRateLimitWindow           = time.Hour
)

// Default values, override via ldflags at build time.
var (
	AppName             string
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  string
	LDServerContextKind string
)

func LoadConfig() *Config {
	//----------------------------------------------------------------------
	// Check for required ldflags
	//----------------------------------------------------------------------
	if AppName == "" {
		utils.Logger.Fatal("AppName was not overridden with ldflags at build time (or is empty)")
	}
	if UniqueRunNumber == "" {
		utils.Logger.Fatal("UniqueRunNumber was not overridden with ldflags at build time (or is empty)")
	}
	if UniqueRunnerID == "" {
		utils.Logger.Fatal("UniqueRunnerID was not overridden with ldflags at build time (or is empty)")
	}
	if LDServerContextKey == "" {
		utils.Logger.Fatal("LDServerContextKey was not overridden with ldflags at build time (or is empty)")
	}
	if LDServerContextKind == "" {
		utils.Logger.Fatal("LDServerContextKind was not overridden with ldflags at build time (or is empty)")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	//----------------------------------------------------------------------
	// Load environment variables.
	//----------------------------------------------------------------------
	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}

	tenantHosts, err := ParseTenantHosts(os.Getenv("TENANT_HOSTS"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid TENANT_HOSTS")
	}
	tenantBaseDomain := utils.NormalizeKey(os.Getenv("TENANT_BASE_DOMAIN"))
	if len(tenantHosts) == 0 && tenantBaseDomain == "" {
		utils.Logger.Fatal("Neither TENANT_HOSTS nor TENANT_BASE_DOMAIN is set; no request could resolve a tenant")
	}

	utils.Logger.Debugf("App can be accessed at: %s", appUrl)

	//----------------------------------------------------------------------
	// Fetch secrets from BWS (appName-env and shared-env)
	//----------------------------------------------------------------------
	client, err := utils.NewBWSSecretsClient()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize BWSSecretsClient")
	}
	defer client.Close()

	bwsProjectName := fmt.Sprintf("%s-%s", AppName, env)
	appSecrets, err := client.GetBWSSecrets(bwsProjectName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch app-specific secrets from BWS")
	}

	bwsSharedProjectName := fmt.Sprintf("shared-%s", env)
	sharedSecrets, err := client.GetBWSSecrets(bwsSharedProjectName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to fetch shared secrets from BWS")
	}

	dbURL := mustSecret(appSecrets, "DB_URL")
	ldSDKKey := mustSecret(appSecrets, "LD_SDK_KEY")
	gcsBucket := mustSecret(appSecrets, "GCS_BUCKET")

	gcsCredentials, err := base64.StdEncoding.DecodeString(mustSecret(appSecrets, "GCS_CREDENTIALS_JSON_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode GCS_CREDENTIALS_JSON_BASE64 from base64")
	}

	sendgridAPIKey := mustSecret(sharedSecrets, "SENDGRID_API_KEY")
	twilioAccountSID := mustSecret(sharedSecrets, "TWILIO_ACCOUNT_SID")
	twilioAuthToken := mustSecret(sharedSecrets, "TWILIO_AUTH_TOKEN")

	//----------------------------------------------------------------------
	// Initialize the LaunchDarkly client with the LD_SDK_KEY.
	//----------------------------------------------------------------------
	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	flags := ldFlags{
		client: ldClient,
		ctx:    ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey),
	}

	return &Config{
		OrganizationName: OrganizationName,
		AppName:          AppName,
		AppPort:          appPort,
		AppUrl:           appUrl,
		UniqueRunNumber:  UniqueRunNumber,
		UniqueRunnerID:   UniqueRunnerID,
		DBUrl:            dbURL,
		LDSDKKey:         ldSDKKey,
		SendgridAPIKey:   sendgridAPIKey,
		TwilioAccountSID: twilioAccountSID,
		TwilioAuthToken:  twilioAuthToken,
		GCSBucket:        gcsBucket,
		GCSCredentials:   gcsCredentials,

		TenantHosts:      tenantHosts,
		TenantBaseDomain: tenantBaseDomain,

		ClaimTimeout:        DefaultClaimTimeout,
		CompensationTimeout: DefaultCompensationTimeout,
		MaxLogoBytes:        DefaultMaxLogoBytes,
		MaxHeroImageBytes:   DefaultMaxHeroImageBytes,
		MaxClaimFormBytes:   DefaultMaxLogoBytes + DefaultMaxHeroImageBytes + 1<<20,
		MaxCodeAttempts:     DefaultMaxCodeAttempts,

		ClaimLimitPerIPPerHour:    DefaultClaimLimitPerIPPerHour,
		ClaimLimitPerEmailPerHour: DefaultClaimLimitPerEmailPerHour,
		RateLimitWindow:           DefaultRateLimitWindow,

		LDFlag_UsingIsolatedSchema:       flags.bool("using_isolated_schema"),
		LDFlag_CORSHighSecurity:          flags.bool("cors_high_security"),
		LDFlag_SendgridSandboxMode:       flags.bool("sendgrid_sandbox_mode"),
		LDFlag_SendgridFromEmail:         flags.string("sendgrid_from_email"),
		LDFlag_TwilioFromPhone:           flags.string("twilio_from_phone"),
		LDFlag_ValidateEmailWithSendGrid: flags.bool("validate_email_with_sendgrid"),
		LDFlag_ClaimOperatorAlertEmail:   flags.string("claim_operator_alert_email"),
		LDFlag_ClaimOperatorAlertPhone:   flags.string("claim_operator_alert_phone"),
		LDFlag_AllowSVGClaimAssets:       flags.bool("allow_svg_claim_assets"),
	}
}

func (c *Config) Close() {}

// ParseTenantHosts reads "host=tenant,host=tenant". Hosts and tenants are
// normalized; ports on the host side are not allowed.
func ParseTenantHosts(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		host, tenant, ok := strings.Cut(pair, "=")
		host, tenant = utils.NormalizeKey(host), utils.NormalizeKey(tenant)
		if !ok || host == "" || tenant == "" {
			return nil, fmt.Errorf("malformed tenant host entry %q", pair)
		}
		if strings.Contains(host, ":") {
			return nil, fmt.Errorf("tenant host %q must not include a port", host)
		}
		out[host] = tenant
	}
	return out, nil
}

func mustSecret(s utils.BWSSecrets, key string) string {
	v, err := s.Require(key)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Missing required secret")
	}
	return v
}

type ldFlags struct {
	client *ld.LDClient
	ctx    ldcontext.Context
}

func (f ldFlags) bool(key string) bool {
	v, err := f.client.BoolVariation(key, f.ctx, false)
	if err != nil {
		f.client.Close()
		utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", key)
	}
	utils.Logger.Debugf("%s flag: %t", key, v)
	return v
}

func (f ldFlags) string(key string) string {
	v, err := f.client.StringVariation(key, f.ctx, "")
	if err != nil {
		f.client.Close()
		utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", key)
	}
	utils.Logger.Debugf("%s flag: %s", key, v)
	return v
}
