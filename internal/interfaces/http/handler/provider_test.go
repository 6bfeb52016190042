package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/registry"
)

const adminToken = "admin-token-for-tests"

func newProviderRegistry(t *testing.T) *registry.ProviderRegistry {
	t.Helper()
	reg := registry.NewProviderRegistry(zaptest.NewLogger(t))
	for _, cfg := range []marketplace.ProviderConfig{
		{ID: "ebay", Name: "eBay", Tag: "ebay", Enabled: true, Priority: 1, Timeout: 8 * time.Second, MinInterval: time.Second, APIKey: "k1"},
		{ID: "etsy", Name: "Etsy", Tag: "etsy", Enabled: true, Priority: 2, Timeout: 8 * time.Second, APIKey: "k2"},
		{ID: "depop", Name: "Depop", Tag: "depop", Enabled: false, Priority: 3, Timeout: 8 * time.Second},
	} {
		require.NoError(t, reg.Register(cfg))
	}
	return reg
}

func TestProviderHandler_List(t *testing.T) {
	r := newTestEngine(NewProviderHandler(newProviderRegistry(t), adminToken, nil))

	w, resp := doRequest(t, r, http.MethodGet, "/api/v1/providers", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	first := list[0].(map[string]any)
	assert.Equal(t, "ebay", first["id"])
	assert.Equal(t, true, first["has_credential"])
	assert.Equal(t, float64(1000), first["min_interval_ms"])
	assert.NotContains(t, w.Body.String(), "k1")
}

func TestProviderHandler_Get(t *testing.T) {
	r := newTestEngine(NewProviderHandler(newProviderRegistry(t), adminToken, nil))

	w, resp := doRequest(t, r, http.MethodGet, "/api/v1/providers/etsy", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Etsy", dataMap(t, resp)["name"])

	w, resp = doRequest(t, r, http.MethodGet, "/api/v1/providers/vinted", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Error.Code)
}

func TestProviderHandler_Override(t *testing.T) {
	auth := map[string]string{"X-Admin-Token": adminToken}

	tests := []struct {
		name       string
		path       string
		body       any
		headers    map[string]string
		wantStatus int
		wantCode   string
		check      func(t *testing.T, reg *registry.ProviderRegistry, data map[string]any)
	}{
		{
			name:       "disable provider",
			path:       "/api/v1/providers/ebay",
			body:       map[string]any{"enabled": false, "min_interval": "750ms"},
			headers:    auth,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, reg *registry.ProviderRegistry, data map[string]any) {
				assert.Equal(t, false, data["enabled"])
				cfg, err := reg.GetConfig("ebay")
				require.NoError(t, err)
				assert.False(t, cfg.Enabled)
				assert.Equal(t, 750*time.Millisecond, cfg.MinInterval)
			},
		},
		{
			name:       "enable with credential",
			path:       "/api/v1/providers/depop",
			body:       map[string]any{"enabled": true, "api_key": "new-key", "priority": 0},
			headers:    auth,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, reg *registry.ProviderRegistry, data map[string]any) {
				assert.Equal(t, true, data["enabled"])
				enabled := reg.ListEnabled()
				require.NotEmpty(t, enabled)
				assert.Equal(t, marketplace.ProviderID("depop"), enabled[0].ID)
			},
		},
		{
			name:       "missing token",
			path:       "/api/v1/providers/ebay",
			body:       map[string]any{"enabled": false},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "ERR_UNAUTHORIZED",
		},
		{
			name:       "unknown provider",
			path:       "/api/v1/providers/vinted",
			body:       map[string]any{"enabled": false},
			headers:    auth,
			wantStatus: http.StatusNotFound,
			wantCode:   "ERR_NOT_FOUND",
		},
		{
			name:       "empty override",
			path:       "/api/v1/providers/ebay",
			body:       map[string]any{},
			headers:    auth,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_BAD_REQUEST",
		},
		{
			name:       "bad duration",
			path:       "/api/v1/providers/ebay",
			body:       map[string]any{"timeout": "forever"},
			headers:    auth,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_BAD_REQUEST",
		},
		{
			name:       "invalid merged config",
			path:       "/api/v1/providers/ebay",
			body:       map[string]any{"timeout": "0s"},
			headers:    auth,
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newProviderRegistry(t)
			r := newTestEngine(NewProviderHandler(reg, adminToken, nil))

			w, resp := doRequest(t, r, http.MethodPatch, tt.path, tt.body, tt.headers)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
			if tt.check != nil {
				tt.check(t, reg, dataMap(t, resp))
			}
		})
	}
}

func TestProviderHandler_OverrideDisabledWithoutToken(t *testing.T) {
	r := newTestEngine(NewProviderHandler(newProviderRegistry(t), "", nil))

	w, resp := doRequest(t, r, http.MethodPatch, "/api/v1/providers/ebay",
		map[string]any{"enabled": false}, map[string]string{"X-Admin-Token": "anything"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ERR_FORBIDDEN", resp.Error.Code)
}
