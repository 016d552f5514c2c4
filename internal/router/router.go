package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/billing"
	"github.com/marjanov802/resellingtracker-sub000/internal/config"
	"github.com/marjanov802/resellingtracker-sub000/internal/fx"
	"github.com/marjanov802/resellingtracker-sub000/internal/handlers"
	"github.com/marjanov802/resellingtracker-sub000/internal/middleware"
	"github.com/marjanov802/resellingtracker-sub000/internal/repositories"
	"github.com/marjanov802/resellingtracker-sub000/internal/services"
)

// Setup wires repositories, services and handlers onto the engine.
//
// Route tiers: /fx and /webhooks are public, /subscription requires only
// authentication (a user without a subscription must still reach checkout),
// and the feature routes sit behind both authentication and the
// subscription gate.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) {
	// Repositories
	inventoryRepo := repositories.NewInventoryRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// External clients
	rateCache := fx.NewCache(fx.NewClient(cfg.FX.BaseURL), fx.DefaultTTL)
	billingClient := billing.NewClient(cfg.Billing.BaseAPIURL, cfg.Billing.APIKey)

	// Services
	inventoryService := services.NewInventoryService(inventoryRepo, rateCache, db)
	saleService := services.NewSaleService(saleRepo, inventoryRepo, rateCache, db)
	dashboardService := services.NewDashboardService(inventoryRepo, saleRepo, rateCache)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, paymentRepo, billingClient, services.SubscriptionConfig{
		MonthlyPriceID:  cfg.Billing.MonthlyPriceID,
		YearlyPriceID:   cfg.Billing.YearlyPriceID,
		TrialPricePence: cfg.Billing.TrialPricePence,
		TrialCurrency:   cfg.Billing.TrialCurrency,
		SuccessURL:      cfg.App.CheckoutSuccess,
		CancelURL:       cfg.App.CheckoutCancel,
		PortalReturnURL: cfg.App.PortalReturn,
	}, db)

	// Handlers
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	saleHandler := handlers.NewSaleHandler(saleService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg.Billing.WebhookSecret)
	fxHandler := handlers.NewFXHandler(rateCache)

	apiV1 := engine.Group("/api/v1")

	SetupPublicRoutes(apiV1, fxHandler, webhookHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(cfg.Identity.JWTSecret))
	{
		SetupSubscriptionRoutes(authenticated, subscriptionHandler)

		gated := authenticated.Group("")
		gated.Use(middleware.RequireActiveSubscription(subscriptionService, cfg.App.PlanSelectionURL))
		{
			SetupInventoryRoutes(gated, inventoryHandler)
			SetupSaleRoutes(gated, saleHandler)
			SetupDashboardRoutes(gated, dashboardHandler)
		}
	}
}
