package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketscout/backend/internal/application/query"
	"github.com/marketscout/backend/internal/application/search"
	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/logger"
	"github.com/marketscout/backend/internal/interfaces/http/dto"
)

// SearchHandler serves the fan-out search endpoints
type SearchHandler struct {
	BaseHandler
	searcher     search.Searcher
	formulator   *query.Formulator
	defaultLimit int
}

// SearchHandlerOption configures a SearchHandler
type SearchHandlerOption func(*SearchHandler)

// WithDefaultLimit sets the limit applied when a request omits one.
// Non-positive values keep the domain default.
func WithDefaultLimit(n int) SearchHandlerOption {
	return func(h *SearchHandler) {
		if n > 0 && n <= marketplace.MaxLimit {
			h.defaultLimit = n
		}
	}
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searcher search.Searcher, formulator *query.Formulator, opts ...SearchHandlerOption) *SearchHandler {
	h := &SearchHandler{
		searcher:   searcher,
		formulator: formulator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the search routes on the API group
func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.Search)
	rg.POST("/search", h.SearchJSON)
	rg.POST("/search/intent", h.SearchIntent)
}

// Search godoc
// @Summary      Search all marketplaces
// @Description  Fans the query out to the enabled providers, or to the comma separated providers subset
// @Tags         search
// @Produce      json
// @Param        q          query string true  "Search text"
// @Param        sort       query string false "relevance, price_low, price_high, newest, rating"
// @Param        providers  query string false "Provider subset, e.g. ebay,etsy"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	var params marketplace.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	h.run(c, params, marketplace.ParseProviderIDs(c.Query("providers")))
}

// SearchJSON godoc
// @Summary      Search all marketplaces with a JSON body
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body dto.SearchRequest true "Search parameters"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /search [post]
func (h *SearchHandler) SearchJSON(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.run(c, req.SearchParams, req.ProviderIDs())
}

// SearchIntent godoc
// @Summary      Search from free text
// @Description  Extracts price bounds, sort, color and size from the text before searching
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body dto.IntentRequest true "Free text"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /search/intent [post]
func (h *SearchHandler) SearchIntent(c *gin.Context) {
	var req dto.IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	params, err := h.formulator.FromText(req.Text)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	subset := make([]marketplace.ProviderID, 0, len(req.Providers))
	for _, p := range req.Providers {
		subset = append(subset, marketplace.ParseProviderIDs(p)...)
	}
	h.run(c, params, subset)
}

func (h *SearchHandler) run(c *gin.Context, params marketplace.SearchParams, subset []marketplace.ProviderID) {
	ctx := c.Request.Context()
	if params.Limit <= 0 && h.defaultLimit > 0 {
		params.Limit = h.defaultLimit
	}
	res, err := h.searcher.SearchAll(ctx, params, subset...)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if len(res.FailedProviders) > 0 {
		logger.L(ctx).Debug("Search finished with provider failures",
			zap.String("search_id", res.SearchID),
			zap.Int("failed", len(res.FailedProviders)),
		)
	}
	h.Success(c, dto.NewSearchResponse(params.WithDefaults(), res))
}
