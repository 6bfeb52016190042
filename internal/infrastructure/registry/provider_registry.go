package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"go.uber.org/zap"
)

// ProviderRegistry holds the configuration of every known marketplace provider.
// Reads vastly outnumber writes; Override is an administrative operation.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[marketplace.ProviderID]marketplace.ProviderConfig
	order     map[marketplace.ProviderID]int
	logger    *zap.Logger
}

// Ensure ProviderRegistry implements the domain port
var _ marketplace.ProviderRegistry = (*ProviderRegistry)(nil)

// NewProviderRegistry creates an empty provider registry
func NewProviderRegistry(logger *zap.Logger) *ProviderRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderRegistry{
		providers: make(map[marketplace.ProviderID]marketplace.ProviderConfig),
		order:     make(map[marketplace.ProviderID]int),
		logger:    logger,
	}
}

// Register adds a provider. A provider marked enabled without a credential
// is registered disabled.
func (r *ProviderRegistry) Register(cfg marketplace.ProviderConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[cfg.ID]; exists {
		return fmt.Errorf("%w: '%s'", marketplace.ErrProviderExists, cfg.ID)
	}
	r.providers[cfg.ID] = r.enforceCredential(cfg)
	r.order[cfg.ID] = len(r.order)
	return nil
}

// GetConfig returns the configuration of a provider
func (r *ProviderRegistry) GetConfig(id marketplace.ProviderID) (marketplace.ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, exists := r.providers[id]
	if !exists {
		return marketplace.ProviderConfig{}, fmt.Errorf("%w: '%s'", marketplace.ErrUnknownProvider, id)
	}
	return cfg, nil
}

// Has returns true if the provider is registered
func (r *ProviderRegistry) Has(id marketplace.ProviderID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[id]
	return exists
}

// MinInterval returns the provider's minimum dispatch interval
func (r *ProviderRegistry) MinInterval(id marketplace.ProviderID) (time.Duration, error) {
	cfg, err := r.GetConfig(id)
	if err != nil {
		return 0, err
	}
	return cfg.MinInterval, nil
}

// Override merges a partial configuration onto a registered provider.
// Last write wins; the merged result is validated before it is stored.
func (r *ProviderRegistry) Override(id marketplace.ProviderID, override marketplace.ConfigOverride) (marketplace.ProviderConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base, exists := r.providers[id]
	if !exists {
		return marketplace.ProviderConfig{}, fmt.Errorf("%w: '%s'", marketplace.ErrUnknownProvider, id)
	}

	merged := override.ApplyTo(base)
	if err := merged.Validate(); err != nil {
		return base, err
	}
	merged = r.enforceCredential(merged)
	r.providers[id] = merged

	r.logger.Info("Provider configuration overridden",
		zap.String("provider", id.String()),
		zap.Bool("enabled", merged.Enabled),
		zap.Int("priority", merged.Priority),
		zap.Duration("min_interval", merged.MinInterval),
		zap.Duration("timeout", merged.Timeout),
	)
	return merged, nil
}

// ListEnabled returns enabled providers sorted by ascending priority
func (r *ProviderRegistry) ListEnabled() []marketplace.ProviderConfig {
	return r.list(true)
}

// List returns all providers sorted by ascending priority
func (r *ProviderRegistry) List() []marketplace.ProviderConfig {
	return r.list(false)
}

func (r *ProviderRegistry) list(enabledOnly bool) []marketplace.ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]marketplace.ProviderConfig, 0, len(r.providers))
	for _, cfg := range r.providers {
		if enabledOnly && !cfg.Enabled {
			continue
		}
		configs = append(configs, cfg)
	}
	// Equal priorities keep registration order
	sort.Slice(configs, func(i, j int) bool {
		if configs[i].Priority != configs[j].Priority {
			return configs[i].Priority < configs[j].Priority
		}
		return r.order[configs[i].ID] < r.order[configs[j].ID]
	})
	return configs
}

// enforceCredential leaves a provider disabled when it would be enabled
// without a credential. Detail-only providers make no upstream call and are exempt.
// Callers must hold r.mu.
func (r *ProviderRegistry) enforceCredential(cfg marketplace.ProviderConfig) marketplace.ProviderConfig {
	if !cfg.Enabled || cfg.DetailOnly || cfg.HasCredential() {
		return cfg
	}
	r.logger.Warn("Provider left disabled: no credential configured",
		zap.String("provider", cfg.ID.String()),
		zap.String("credential_env", cfg.CredentialEnv),
	)
	cfg.Enabled = false
	return cfg
}
