package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"github.com/marketscout/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Defaults for providers declared only in configuration
const (
	customProviderPriority    = 100
	customProviderMinInterval = time.Second
	customProviderTimeout     = 8 * time.Second
)

// DefaultProviders returns the built-in provider table.
// Credentials are not part of the table; they come from the environment.
func DefaultProviders() []marketplace.ProviderConfig {
	return []marketplace.ProviderConfig{
		{
			ID:            marketplace.ProviderEbay,
			Name:          "eBay",
			Tag:           "ebay",
			BaseURL:       "https://ebay-search-result.p.rapidapi.com/search",
			Host:          "ebay-search-result.p.rapidapi.com",
			Enabled:       true,
			Priority:      1,
			MinInterval:   time.Second,
			Timeout:       8 * time.Second,
			CredentialEnv: "EBAY_RAPIDAPI_KEY",
		},
		{
			ID:            marketplace.ProviderEtsy,
			Name:          "Etsy",
			Tag:           "etsy",
			BaseURL:       "https://etsy-api2.p.rapidapi.com/product/search",
			Host:          "etsy-api2.p.rapidapi.com",
			Enabled:       true,
			Priority:      2,
			MinInterval:   500 * time.Millisecond,
			Timeout:       6 * time.Second,
			CredentialEnv: "ETSY_RAPIDAPI_KEY",
		},
		{
			ID:            marketplace.ProviderPoshmark,
			Name:          "Poshmark",
			Tag:           "posh",
			BaseURL:       "https://poshmark.p.rapidapi.com/search",
			Host:          "poshmark.p.rapidapi.com",
			Enabled:       true,
			Priority:      3,
			MinInterval:   time.Second,
			Timeout:       8 * time.Second,
			CredentialEnv: "POSHMARK_RAPIDAPI_KEY",
		},
		{
			ID:            marketplace.ProviderDepop,
			Name:          "Depop",
			Tag:           "depop",
			BaseURL:       "https://depop-thrift.p.rapidapi.com/getSearch",
			Host:          "depop-thrift.p.rapidapi.com",
			Enabled:       true,
			Priority:      4,
			MinInterval:   2 * time.Second,
			Timeout:       10 * time.Second,
			CredentialEnv: "DEPOP_RAPIDAPI_KEY",
		},
		{
			ID:            marketplace.ProviderMercari,
			Name:          "Mercari",
			Tag:           "mercari",
			BaseURL:       "https://mercari.p.rapidapi.com/Mercari/Search",
			Host:          "mercari.p.rapidapi.com",
			Enabled:       true,
			Priority:      5,
			MinInterval:   200 * time.Millisecond,
			Timeout:       5 * time.Second,
			CredentialEnv: "MERCARI_RAPIDAPI_KEY",
		},
		{
			ID:            marketplace.ProviderGrailed,
			Name:          "Grailed",
			Tag:           "grailed",
			BaseURL:       "https://grailed.p.rapidapi.com/listing",
			Host:          "grailed.p.rapidapi.com",
			Enabled:       false, // detail lookup only; opt in explicitly
			Priority:      6,
			MinInterval:   2 * time.Second,
			Timeout:       3 * time.Second,
			CredentialEnv: "GRAILED_RAPIDAPI_KEY",
			DetailOnly:    true,
		},
	}
}

// NewRegistryFromSettings builds a registry from the built-in table with
// per-provider settings applied on top. Providers present only in settings
// are registered when they declare a base URL.
func NewRegistryFromSettings(settings map[string]config.ProviderSettings, logger *zap.Logger) (*ProviderRegistry, error) {
	r := NewProviderRegistry(logger)

	known := make(map[string]struct{})
	for _, base := range DefaultProviders() {
		known[base.ID.String()] = struct{}{}
		cfg := applySettings(base, settings[base.ID.String()])
		if err := r.Register(cfg); err != nil {
			return nil, err
		}
	}

	// Custom providers, in a deterministic registration order
	ids := make([]string, 0, len(settings))
	for id := range settings {
		if _, ok := known[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		s := settings[id]
		if strings.TrimSpace(s.BaseURL) == "" {
			r.logger.Debug("Skipping provider without base_url", zap.String("provider", id))
			continue
		}
		base := marketplace.ProviderConfig{
			ID:          marketplace.ProviderID(id),
			Name:        id,
			Tag:         id,
			Enabled:     true,
			Priority:    customProviderPriority,
			MinInterval: customProviderMinInterval,
			Timeout:     customProviderTimeout,
		}
		if err := r.Register(applySettings(base, s)); err != nil {
			return nil, fmt.Errorf("register provider %s: %w", id, err)
		}
	}

	return r, nil
}

// applySettings overlays non-zero settings onto a provider config
func applySettings(base marketplace.ProviderConfig, s config.ProviderSettings) marketplace.ProviderConfig {
	cfg := base
	if s.Enabled != nil {
		cfg.Enabled = *s.Enabled
	}
	if s.Priority != nil {
		cfg.Priority = *s.Priority
	}
	if s.MinInterval > 0 {
		cfg.MinInterval = s.MinInterval
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.CredentialEnv != "" {
		cfg.CredentialEnv = s.CredentialEnv
	}
	cfg.APIKey = s.APIKey
	return cfg
}
