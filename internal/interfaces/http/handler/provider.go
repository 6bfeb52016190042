package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/telemetry"
	"github.com/marketscout/backend/internal/interfaces/http/dto"
	"github.com/marketscout/backend/internal/interfaces/http/middleware"
)

// ProviderHandler exposes provider diagnostics and runtime overrides
type ProviderHandler struct {
	BaseHandler
	registry   marketplace.ProviderRegistry
	adminToken string
	metrics    *telemetry.SearchMetrics
}

// NewProviderHandler creates a new ProviderHandler. An empty adminToken
// disables the override endpoint.
func NewProviderHandler(registry marketplace.ProviderRegistry, adminToken string, metrics *telemetry.SearchMetrics) *ProviderHandler {
	return &ProviderHandler{
		registry:   registry,
		adminToken: adminToken,
		metrics:    metrics,
	}
}

// RegisterRoutes registers the provider routes on the API group
func (h *ProviderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	providers := rg.Group("/providers")
	providers.GET("", h.List)
	providers.GET("/:id", h.Get)
	providers.PATCH("/:id", middleware.AdminToken(h.adminToken), h.Override)
}

// List godoc
// @Summary      List providers
// @Description  Returns every configured provider in priority order. Credentials are never included.
// @Tags         providers
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /providers [get]
func (h *ProviderHandler) List(c *gin.Context) {
	h.Success(c, dto.NewProviderList(h.registry.List()))
}

// Get godoc
// @Summary      Get one provider
// @Tags         providers
// @Produce      json
// @Param        id path string true "Provider ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /providers/{id} [get]
func (h *ProviderHandler) Get(c *gin.Context) {
	cfg, err := h.registry.GetConfig(marketplace.ProviderID(c.Param("id")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProviderResponse(cfg))
}

// Override godoc
// @Summary      Override provider configuration
// @Description  Merges the given fields onto the provider. Requires X-Admin-Token.
// @Tags         providers
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Provider ID"
// @Param        request body dto.ProviderOverrideRequest true "Fields to change"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /providers/{id} [patch]
func (h *ProviderHandler) Override(c *gin.Context) {
	var req dto.ProviderOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	override, err := req.ToOverride()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if override.IsEmpty() {
		h.BadRequest(c, "No fields to override")
		return
	}

	cfg, err := h.registry.Override(marketplace.ProviderID(c.Param("id")), override)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.metrics.RecordEnabledProviders(c.Request.Context(), len(h.registry.ListEnabled()))
	h.Success(c, dto.NewProviderResponse(cfg))
}
