package api

import (
	"net/http"

	"prodboard-backend/internal/notification"
	tenantDelivery "prodboard-backend/internal/tenant/delivery"
	tenantUsecase "prodboard-backend/internal/tenant/usecase"
	triageDelivery "prodboard-backend/internal/triage/delivery"
	workitemDelivery "prodboard-backend/internal/workitem/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, tenantUc tenantUsecase.TenantUsecase, tenantHandler *tenantDelivery.TenantHandler, workItemHandler *workitemDelivery.WorkItemHandler, triageHandler *triageDelivery.TriageHandler, notifService *notification.Service, runtimeCfg *RuntimeConfig) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Tenant registration and token exchange (no auth required)
		tenants := api.Group("/tenants")
		{
			tenants.POST("", tenantHandler.CreateTenant)
			tenants.POST("/token", tenantHandler.IssueToken)
			tenants.GET("/me", tenantDelivery.AuthMiddleware(tenantUc), tenantHandler.GetCurrentTenant)
		}

		// Module routes (protected)
		modules := api.Group("/modules")
		modules.Use(tenantDelivery.AuthMiddleware(tenantUc))
		{
			modules.GET("", tenantHandler.ListModules)
			modules.POST("", tenantHandler.CreateModule)
		}

		// Work item routes (protected)
		workItems := api.Group("/work-items")
		workItems.Use(tenantDelivery.AuthMiddleware(tenantUc))
		{
			workItems.GET("", workItemHandler.GetWorkItems)
			workItems.POST("", workItemHandler.CreateWorkItem)
			workItems.GET("/search", workItemHandler.SearchWorkItems)
			workItems.GET("/:id", workItemHandler.GetWorkItemByID)
			workItems.PUT("/:id", workItemHandler.UpdateWorkItem)
			workItems.DELETE("/:id", workItemHandler.DeleteWorkItem)
			workItems.GET("/:id/comments", workItemHandler.GetComments)
		}

		// Triage routes (protected) - email classification workflow
		triage := api.Group("/triage")
		triage.Use(tenantDelivery.AuthMiddleware(tenantUc))
		{
			triage.POST("/messages/:id", triageHandler.ProcessMessage)
			triage.GET("/outcomes", triageHandler.GetOutcomes)
			triage.GET("/outcomes/:id", triageHandler.GetOutcomeByID)
			triage.POST("/outcomes/:id/approve", triageHandler.ApproveOutcome)
			triage.POST("/outcomes/:id/reject", triageHandler.RejectOutcome)
		}

		// FCM device registration (protected)
		fcm := api.Group("/fcm")
		fcm.Use(tenantDelivery.AuthMiddleware(tenantUc))
		{
			fcm.POST("/register", func(c *gin.Context) {
				if notifService == nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications are not configured"})
					return
				}
				var req struct {
					Token string `json:"token" binding:"required"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				tenantID := c.GetString("tenantID")
				if err := notifService.RegisterDevice(c.Request.Context(), tenantID, req.Token); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
			})
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", runtimeCfg.GetOllamaSettings)
			settings.PUT("/ollama", runtimeCfg.UpdateOllamaSettings)
			settings.POST("/ollama/test", runtimeCfg.TestOllamaConnection)
		}
	}
}
