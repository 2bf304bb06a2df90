package api

import (
	"log"

	"prodboard-backend/internal/notification"
	tenantDelivery "prodboard-backend/internal/tenant/delivery"
	tenantUsecasePkg "prodboard-backend/internal/tenant/usecase"
	triageDelivery "prodboard-backend/internal/triage/delivery"
	triageUsecasePkg "prodboard-backend/internal/triage/usecase"
	workitemDelivery "prodboard-backend/internal/workitem/delivery"
	workitemUsecasePkg "prodboard-backend/internal/workitem/usecase"
	"prodboard-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	tenantUsecase   tenantUsecasePkg.TenantUsecase
	tenantHandler   *tenantDelivery.TenantHandler
	workItemHandler *workitemDelivery.WorkItemHandler
	triageHandler   *triageDelivery.TriageHandler
	notifService    *notification.Service
	runtimeConfig   *RuntimeConfig
	config          *config.Config
}

func NewHandler(tenantUc tenantUsecasePkg.TenantUsecase, workItemUc workitemUsecasePkg.WorkItemUsecase, triageUc triageUsecasePkg.TriageUsecase, notifService *notification.Service, runtimeCfg *RuntimeConfig, cfg *config.Config) *Handler {
	log.Println("[API] Handlers initialized")

	return &Handler{
		tenantUsecase:   tenantUc,
		tenantHandler:   tenantDelivery.NewTenantHandler(tenantUc),
		workItemHandler: workitemDelivery.NewWorkItemHandler(workItemUc),
		triageHandler:   triageDelivery.NewTriageHandler(triageUc),
		notifService:    notifService,
		runtimeConfig:   runtimeCfg,
		config:          cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.tenantUsecase, h.tenantHandler, h.workItemHandler, h.triageHandler, h.notifService, h.runtimeConfig)

	return r.Run(addr)
}
