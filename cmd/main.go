package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/app"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/config"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/controllers"
	internal_repositories "github.com/WalletPush/qwikker-bournemouth-sub006/internal/repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/routes"
	"github.com/WalletPush/qwikker-bournemouth-sub006/internal/services"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-middleware"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-repositories"
	"github.com/WalletPush/qwikker-bournemouth-sub006/shared/go-utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize the application:", err)
	}
	defer application.Close()

	// Repositories
	listingRepo := repositories.NewBusinessListingRepository(application.DB)
	codeRepo := repositories.NewClaimVerificationRepository(application.DB)
	claimantRepo := repositories.NewClaimantAccountRepository(application.DB)
	claimRepo := repositories.NewClaimRequestRepository(application.DB)
	compensationRepo := repositories.NewClaimCompensationFailureRepository(application.DB)
	rateLimitRepo := internal_repositories.NewRateLimitRepository(application.DB)

	// Services
	rateLimiter := services.NewRateLimiterService(rateLimitRepo, cfg)
	gate := services.NewVerificationGate(codeRepo, cfg.MaxCodeAttempts)
	identity := services.NewIdentityProvisioner(claimantRepo, utils.DefaultPasswordCost)
	ingestor := services.NewAssetIngestor(application.Assets, services.AssetLimits{
		MaxLogoBytes:      cfg.MaxLogoBytes,
		MaxHeroImageBytes: cfg.MaxHeroImageBytes,
		AllowSVG:          cfg.LDFlag_AllowSVGClaimAssets,
	})
	notifier := services.NewClaimNotifier(cfg)

	claimService := services.NewClaimService(
		cfg, gate, listingRepo, identity, ingestor, claimRepo, compensationRepo, notifier, rateLimiter,
	)
	claimService.SetEmailValidator(func(ctx context.Context, email string) (bool, error) {
		return utils.ValidateEmail(ctx, cfg.SendgridAPIKey, email, cfg.LDFlag_ValidateEmailWithSendGrid)
	})
	listingService := services.NewListingService(listingRepo, claimRepo)
	cleanupService := services.NewVerificationCleanupService(codeRepo, rateLimitRepo)

	// Controllers
	healthController := controllers.NewHealthController(application.DB)
	claimController := controllers.NewClaimController(claimService, cfg.MaxClaimFormBytes)
	listingController := controllers.NewListingController(listingService)

	// Daily cleanup of expired codes and rate-limit windows
	c := cron.New()
	_, schErr := c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := cleanupService.CleanupDaily(ctx); err != nil {
			utils.Logger.WithError(err).Error("Scheduled claim cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule claim cleanup job")
	}
	c.Start()
	defer c.Stop()

	// Router
	router := mux.NewRouter()

	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.Handler()).Methods(http.MethodGet)

	// Tenant-scoped routes
	tenantScoped := router.NewRoute().Subrouter()
	tenantScoped.Use(middleware.TenantMiddleware(middleware.NewTenantResolver(cfg.TenantHosts, cfg.TenantBaseDomain)))

	tenantScoped.HandleFunc(routes.Claims, claimController.SubmitClaimHandler).Methods(http.MethodPost)
	tenantScoped.HandleFunc(routes.ListingClaimStatus, listingController.GetClaimStatusHandler).Methods(http.MethodGet)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ClaimTimeout + cfg.CompensationTimeout + 5*time.Second,
	}

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := server.ListenAndServe(); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
