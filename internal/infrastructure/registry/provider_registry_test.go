package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testProvider(id string, priority int, enabled bool) marketplace.ProviderConfig {
	return marketplace.ProviderConfig{
		ID:          marketplace.ProviderID(id),
		Name:        id,
		Tag:         id,
		BaseURL:     "https://" + id + ".example/search",
		Enabled:     enabled,
		Priority:    priority,
		MinInterval: 100 * time.Millisecond,
		Timeout:     time.Second,
		APIKey:      "key-" + id,
	}
}

func ids(configs []marketplace.ProviderConfig) []marketplace.ProviderID {
	out := make([]marketplace.ProviderID, len(configs))
	for i, c := range configs {
		out[i] = c.ID
	}
	return out
}

func TestProviderRegistry_Register(t *testing.T) {
	t.Run("registers and retrieves provider", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		require.NoError(t, r.Register(testProvider("a", 1, true)))

		cfg, err := r.GetConfig("a")
		require.NoError(t, err)
		assert.Equal(t, "a", cfg.Tag)
		assert.True(t, cfg.Enabled)
		assert.True(t, r.Has("a"))
	})

	t.Run("rejects duplicate", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		require.NoError(t, r.Register(testProvider("a", 1, true)))
		err := r.Register(testProvider("a", 2, true))
		assert.ErrorIs(t, err, marketplace.ErrProviderExists)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		cfg := testProvider("a", 1, true)
		cfg.Timeout = 0
		assert.ErrorIs(t, r.Register(cfg), marketplace.ErrInvalidProvider)
		assert.False(t, r.Has("a"))
	})

	t.Run("enabled without credential is registered disabled and logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		r := NewProviderRegistry(zap.New(core))

		cfg := testProvider("a", 1, true)
		cfg.APIKey = "   "
		cfg.CredentialEnv = "A_KEY"
		require.NoError(t, r.Register(cfg))

		got, err := r.GetConfig("a")
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "A_KEY", logs.All()[0].ContextMap()["credential_env"])
	})

	t.Run("detail-only provider needs no credential", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		cfg := testProvider("d", 1, true)
		cfg.APIKey = ""
		cfg.DetailOnly = true
		require.NoError(t, r.Register(cfg))

		got, _ := r.GetConfig("d")
		assert.True(t, got.Enabled)
	})
}

func TestProviderRegistry_GetConfig_Unknown(t *testing.T) {
	r := NewProviderRegistry(nil)
	_, err := r.GetConfig("missing")
	assert.ErrorIs(t, err, marketplace.ErrUnknownProvider)

	_, err = r.MinInterval("missing")
	assert.ErrorIs(t, err, marketplace.ErrUnknownProvider)
}

func TestProviderRegistry_List(t *testing.T) {
	r := NewProviderRegistry(nil)
	require.NoError(t, r.Register(testProvider("c", 3, true)))
	require.NoError(t, r.Register(testProvider("b", 2, false)))
	require.NoError(t, r.Register(testProvider("a2", 1, true)))
	require.NoError(t, r.Register(testProvider("a1", 1, true)))

	assert.Equal(t, []marketplace.ProviderID{"a2", "a1", "b", "c"}, ids(r.List()))
	assert.Equal(t, []marketplace.ProviderID{"a2", "a1", "c"}, ids(r.ListEnabled()))
}

func TestProviderRegistry_Override(t *testing.T) {
	t.Run("merges fields last write wins", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		require.NoError(t, r.Register(testProvider("a", 1, true)))

		p1, p2 := 5, 7
		_, err := r.Override("a", marketplace.ConfigOverride{Priority: &p1})
		require.NoError(t, err)
		interval := 2 * time.Second
		got, err := r.Override("a", marketplace.ConfigOverride{Priority: &p2, MinInterval: &interval})
		require.NoError(t, err)

		assert.Equal(t, 7, got.Priority)
		assert.Equal(t, 2*time.Second, got.MinInterval)
		assert.Equal(t, "https://a.example/search", got.BaseURL)

		stored, _ := r.GetConfig("a")
		assert.Equal(t, got, stored)
	})

	t.Run("unknown provider", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		_, err := r.Override("nope", marketplace.ConfigOverride{})
		assert.ErrorIs(t, err, marketplace.ErrUnknownProvider)
	})

	t.Run("invalid merge is rejected and base kept", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		require.NoError(t, r.Register(testProvider("a", 1, true)))

		zero := time.Duration(0)
		_, err := r.Override("a", marketplace.ConfigOverride{Timeout: &zero})
		assert.ErrorIs(t, err, marketplace.ErrInvalidProvider)

		stored, _ := r.GetConfig("a")
		assert.Equal(t, time.Second, stored.Timeout)
	})

	t.Run("enable without credential is a no-op", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		cfg := testProvider("a", 1, false)
		cfg.APIKey = ""
		require.NoError(t, r.Register(cfg))

		enabled := true
		got, err := r.Override("a", marketplace.ConfigOverride{Enabled: &enabled})
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Empty(t, r.ListEnabled())
	})

	t.Run("enable together with credential", func(t *testing.T) {
		r := NewProviderRegistry(nil)
		cfg := testProvider("a", 1, false)
		cfg.APIKey = ""
		require.NoError(t, r.Register(cfg))

		enabled, key := true, "fresh"
		got, err := r.Override("a", marketplace.ConfigOverride{Enabled: &enabled, APIKey: &key})
		require.NoError(t, err)
		assert.True(t, got.Enabled)
	})
}

func TestProviderRegistry_ConcurrentAccess(t *testing.T) {
	r := NewProviderRegistry(nil)
	require.NoError(t, r.Register(testProvider("a", 1, true)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			p := i
			_, _ = r.Override("a", marketplace.ConfigOverride{Priority: &p})
		}(i)
		go func() {
			defer wg.Done()
			_ = r.ListEnabled()
			_, _ = r.GetConfig("a")
		}()
	}
	wg.Wait()

	assert.Len(t, r.List(), 1)
}

func TestNewRegistryFromSettings(t *testing.T) {
	t.Run("built-in providers without credentials are disabled", func(t *testing.T) {
		r, err := NewRegistryFromSettings(nil, nil)
		require.NoError(t, err)

		assert.Len(t, r.List(), len(DefaultProviders()))
		assert.Empty(t, r.ListEnabled())
	})

	t.Run("credentials enable providers in priority order", func(t *testing.T) {
		settings := map[string]config.ProviderSettings{
			"mercari": {APIKey: "m"},
			"ebay":    {APIKey: "e"},
			"etsy":    {APIKey: "x"},
		}
		r, err := NewRegistryFromSettings(settings, nil)
		require.NoError(t, err)

		assert.Equal(t,
			[]marketplace.ProviderID{marketplace.ProviderEbay, marketplace.ProviderEtsy, marketplace.ProviderMercari},
			ids(r.ListEnabled()))
	})

	t.Run("settings override the built-in table", func(t *testing.T) {
		disabled, priority := false, 9
		settings := map[string]config.ProviderSettings{
			"ebay": {APIKey: "e", Enabled: &disabled},
			"etsy": {APIKey: "x", Priority: &priority, MinInterval: 3 * time.Second, BaseURL: "http://localhost:9999"},
		}
		r, err := NewRegistryFromSettings(settings, nil)
		require.NoError(t, err)

		ebay, _ := r.GetConfig(marketplace.ProviderEbay)
		assert.False(t, ebay.Enabled)

		etsy, _ := r.GetConfig(marketplace.ProviderEtsy)
		assert.Equal(t, 9, etsy.Priority)
		assert.Equal(t, 3*time.Second, etsy.MinInterval)
		assert.Equal(t, "http://localhost:9999", etsy.BaseURL)
		assert.Equal(t, "etsy-api2.p.rapidapi.com", etsy.Host)
	})

	t.Run("custom provider registered when base url given", func(t *testing.T) {
		settings := map[string]config.ProviderSettings{
			"vinted": {APIKey: "v", BaseURL: "https://vinted.example/search"},
			"empty":  {APIKey: "z"},
		}
		r, err := NewRegistryFromSettings(settings, nil)
		require.NoError(t, err)

		vinted, err := r.GetConfig("vinted")
		require.NoError(t, err)
		assert.True(t, vinted.Enabled)
		assert.Equal(t, 100, vinted.Priority)
		assert.Equal(t, "vinted", vinted.Tag)
		assert.False(t, r.Has("empty"))
	})
}

func TestDefaultProviders(t *testing.T) {
	seenTags := make(map[string]bool)
	for _, p := range DefaultProviders() {
		require.NoError(t, p.Validate(), p.ID)
		assert.False(t, seenTags[p.Tag], "duplicate tag %s", p.Tag)
		seenTags[p.Tag] = true
		assert.GreaterOrEqual(t, p.Timeout, 3*time.Second)
		assert.LessOrEqual(t, p.Timeout, 10*time.Second)
		assert.GreaterOrEqual(t, p.MinInterval, 200*time.Millisecond)
		assert.LessOrEqual(t, p.MinInterval, 2*time.Second)
	}
}
