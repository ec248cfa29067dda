package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/gateway"
	"github.com/raulisai/Gateway-IA/src/middleware"
	"github.com/raulisai/Gateway-IA/src/models"
)

// ChatRequest is the body of the chat completions and route preview calls.
type ChatRequest struct {
	models.GenerationRequest
	RoutingStrategy string `json:"routing_strategy,omitempty"`
}

type GatewayHandler struct {
	gateway *gateway.Gateway
	catalog models.ModelCatalog
	usage   models.UsageStore
	logger  *zap.Logger
}

func NewGatewayHandler(gw *gateway.Gateway, catalog models.ModelCatalog, usage models.UsageStore, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{
		gateway: gw,
		catalog: catalog,
		usage:   usage,
		logger:  logger,
	}
}

func (h *GatewayHandler) HandleChatCompletion(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %v", err))
		return
	}

	resp, err := h.gateway.Generate(c.Request.Context(), middleware.Tenant(c), &req.GenerationRequest, req.RoutingStrategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GatewayHandler) HandleRoutePreview(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewValidationError("invalid request body: %v", err))
		return
	}

	preview, err := h.gateway.PreviewRoute(c.Request.Context(), middleware.Tenant(c), &req.GenerationRequest, req.RoutingStrategy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *GatewayHandler) HandleCacheMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.CacheMetrics())
}

func (h *GatewayHandler) HandleListModels(c *gin.Context) {
	defs := h.catalog.List(c.Query("provider"))
	c.JSON(http.StatusOK, gin.H{
		"models": defs,
		"count":  len(defs),
	})
}

func (h *GatewayHandler) HandleUsageSummary(c *gin.Context) {
	summary, err := h.usage.Summary(c.Request.Context(), middleware.Tenant(c))
	if err != nil {
		h.logger.Error("failed to load usage summary", zap.String("tenant", middleware.Tenant(c)), zap.Error(err))
		respondError(c, models.NewInternalError("failed to load usage summary", err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *GatewayHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// RegisterRoutes mounts the tenant API under group, which is expected to
// carry the auth middleware.
func (h *GatewayHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/chat/completions", h.HandleChatCompletion)
	group.POST("/route/preview", h.HandleRoutePreview)
	group.GET("/cache/metrics", h.HandleCacheMetrics)
	group.GET("/models", h.HandleListModels)
	group.GET("/usage/summary", h.HandleUsageSummary)
}

func respondError(c *gin.Context, err error) {
	gwErr := models.AsError(err)
	msg := gwErr.Error()
	if gwErr.Kind == models.KindInternal {
		msg = gwErr.Message
	}
	c.JSON(gwErr.HTTPStatus(), gin.H{
		"error": gin.H{
			"code":    gwErr.Kind,
			"message": msg,
		},
	})
}
