package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/marketscout/backend/internal/domain/marketplace"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from a provider (5MB)
const maxResponseSize = 5 * 1024 * 1024

// userAgent identifies outbound provider requests
const userAgent = "marketscout/1.0"

// ConfigSource supplies the current configuration of a provider.
// Adapters read it on every call so registry overrides apply to the next search.
type ConfigSource interface {
	GetConfig(id marketplace.ProviderID) (marketplace.ProviderConfig, error)
}

// providerClient performs the single outbound request of a provider search
type providerClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func newProviderClient(httpClient *http.Client, logger *zap.Logger) *providerClient {
	if httpClient == nil {
		// Per-request deadlines come from the context
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &providerClient{httpClient: httpClient, logger: logger}
}

// doRequest issues a GET to the provider bounded by cfg.Timeout and returns
// the body. Failures are classified as timeout, unavailable or bad status.
func (c *providerClient) doRequest(ctx context.Context, cfg marketplace.ProviderConfig, query url.Values) ([]byte, error) {
	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %v", marketplace.ErrProviderUnavailable, err)
	}
	q := endpoint.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	endpoint.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", marketplace.ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if cfg.HasCredential() {
		req.Header.Set("X-RapidAPI-Key", cfg.APIKey)
	}
	if cfg.Host != "" {
		req.Header.Set("X-RapidAPI-Host", cfg.Host)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(cfg, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(cfg, err)
	}

	c.logger.Debug("Provider responded",
		zap.String("provider", cfg.ID.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrProviderBadStatus, resp.StatusCode)
	}
	return body, nil
}

// classifyTransportError maps a transport failure to a dispatch error
func classifyTransportError(cfg marketplace.ProviderConfig, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: no response within %s", marketplace.ErrProviderTimeout, cfg.Timeout)
	}
	return fmt.Errorf("%w: %v", marketplace.ErrProviderUnavailable, err)
}
