// Package router assembles the gin engine: middleware chain, health check and
// versioned API routes.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/marketscout/backend/internal/infrastructure/logger"
	"github.com/marketscout/backend/internal/interfaces/http/middleware"
)

// HealthPath is served outside the versioned API and is not request-logged
const HealthPath = "/health"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
	health     gin.HandlerFunc
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithHealth serves h at HealthPath
func WithHealth(h gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.health = h
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	if r.health != nil {
		r.engine.GET(HealthPath, r.health)
	}
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the middleware chain of NewEngine
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	TracingEnabled bool
	// Meter enables HTTP metrics when non-nil
	Meter        metric.Meter
	CORSOrigins  []string
	RateLimiter  *middleware.RateLimiter
	MaxBodyBytes int64
}

// NewEngine creates a gin engine with the service middleware chain.
// Order: recovery, request ID, tracing, logging, metrics, CORS, security
// headers, inbound rate limit, body limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log, HealthPath),
		middleware.HTTPMetrics(cfg.Meter, log),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Secure(),
	)
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	engine.Use(middleware.BodyLimit(maxBody))
	return engine
}

// DefaultRateLimiter builds the inbound limiter from request count and window.
// A non-positive count or window disables limiting.
func DefaultRateLimiter(requests int, window time.Duration) *middleware.RateLimiter {
	if requests <= 0 || window <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(requests, window)
}
