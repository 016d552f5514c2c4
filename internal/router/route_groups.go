package router

import (
	"github.com/gin-gonic/gin"

	"github.com/marjanov802/resellingtracker-sub000/internal/handlers"
)

// SetupPublicRoutes sets up routes that need no authentication.
func SetupPublicRoutes(apiGroup *gin.RouterGroup, fxHandler *handlers.FXHandler, webhookHandler *handlers.WebhookHandler) {
	apiGroup.GET("/fx", fxHandler.GetRates)
	apiGroup.POST("/billing/webhook", webhookHandler.HandleBillingWebhook)
}

// SetupSubscriptionRoutes sets up the subscription management routes.
func SetupSubscriptionRoutes(authenticatedGroup *gin.RouterGroup, subscriptionHandler *handlers.SubscriptionHandler) {
	subscriptionRoutes := authenticatedGroup.Group("/subscription")
	{
		subscriptionRoutes.POST("/checkout", subscriptionHandler.CreateCheckout)
		subscriptionRoutes.POST("/portal", subscriptionHandler.CreatePortal)
		subscriptionRoutes.GET("/status", subscriptionHandler.GetStatus)
		subscriptionRoutes.GET("/payments", subscriptionHandler.ListPayments)
	}
}

// SetupInventoryRoutes sets up the inventory routes.
func SetupInventoryRoutes(gatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := gatedGroup.Group("/inventory")
	{
		inventoryRoutes.POST("", inventoryHandler.CreateItem)
		inventoryRoutes.GET("", inventoryHandler.ListItems)
		inventoryRoutes.GET("/:id", inventoryHandler.GetItem)
		inventoryRoutes.PATCH("/:id", inventoryHandler.UpdateItem)
		inventoryRoutes.DELETE("/:id", inventoryHandler.DeleteItem)
	}
}

// SetupSaleRoutes sets up the sale routes.
func SetupSaleRoutes(gatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := gatedGroup.Group("/sales")
	{
		saleRoutes.POST("", saleHandler.RecordSale)
		saleRoutes.GET("", saleHandler.ListSales)
		saleRoutes.DELETE("/:id", saleHandler.DeleteSale)
		saleRoutes.POST("/bulk-delete", saleHandler.DeleteSales)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(gatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	gatedGroup.GET("/dashboard/summary", dashboardHandler.GetSummary)
}
