package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/interfaces/http/dto"
)

// SystemHandler serves the health endpoint
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	registry  marketplace.ProviderRegistry
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, registry marketplace.ProviderRegistry) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		registry:  registry,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status           string   `json:"status"`
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	GoVersion        string   `json:"go_version"`
	Uptime           string   `json:"uptime"`
	EnabledProviders []string `json:"enabled_providers"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and which providers currently take part in searches.
// @Description  Status is "degraded" when no provider is enabled.
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	enabled := h.registry.ListEnabled()
	ids := make([]string, 0, len(enabled))
	for _, cfg := range enabled {
		ids = append(ids, cfg.ID.String())
	}

	status := "ok"
	if len(ids) == 0 {
		status = "degraded"
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:           status,
		Name:             h.name,
		Version:          h.version,
		GoVersion:        runtime.Version(),
		Uptime:           time.Since(h.startTime).Round(time.Second).String(),
		EnabledProviders: ids,
	}))
}
