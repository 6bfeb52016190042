package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscout/backend/internal/domain/marketplace"
)

func TestSearchRequest_DecodeAndProviders(t *testing.T) {
	body := `{"query":"denim jacket","max_price":40,"sort_by":"price_low","providers":["ebay","Etsy, depop"]}`

	var req SearchRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "denim jacket", req.Query)
	require.NotNil(t, req.MaxPrice)
	assert.InDelta(t, 40.0, *req.MaxPrice, 1e-9)
	assert.Equal(t, marketplace.SortPriceLow, req.SortBy)
	assert.Equal(t, []marketplace.ProviderID{"ebay", "etsy", "depop"}, req.ProviderIDs())
}

func TestNewSearchResponse(t *testing.T) {
	res := &marketplace.AggregatedResult{
		SearchID: "s-1",
		Providers: []marketplace.ProviderSearchResult{
			marketplace.NewSuccessResult(marketplace.ProviderEbay, []marketplace.CanonicalProduct{{ID: "ebay_1"}}, 1500*time.Millisecond),
			marketplace.NewFailedResult(marketplace.ProviderEtsy, marketplace.ResultStatusRateLimited, "rate limit", 0),
		},
		TotalTime:           1600 * time.Millisecond,
		SuccessfulProviders: []marketplace.ProviderID{marketplace.ProviderEbay},
		FailedProviders:     []marketplace.ProviderID{marketplace.ProviderEtsy},
	}

	resp := NewSearchResponse(marketplace.SearchParams{Query: "jacket"}, res)

	assert.Equal(t, "s-1", resp.SearchID)
	assert.NotNil(t, resp.Products)
	assert.Zero(t, resp.Count)
	assert.Equal(t, int64(1600), resp.TotalTimeMS)
	assert.Equal(t, []string{"ebay"}, resp.SuccessfulProviders)
	assert.Equal(t, []string{"etsy"}, resp.FailedProviders)
	require.Len(t, resp.Providers, 2)
	assert.Equal(t, ProviderOutcome{Provider: "ebay", Success: true, Status: "ok", Count: 1, ElapsedMS: 1500}, resp.Providers[0])
	assert.Equal(t, "rate_limited", resp.Providers[1].Status)
	assert.Equal(t, "rate limit", resp.Providers[1].Error)
}

func TestNewProviderList(t *testing.T) {
	cfgs := []marketplace.ProviderConfig{
		{ID: "ebay", Priority: 1, MinInterval: time.Second},
		{ID: "depop", Priority: 2},
		{ID: "etsy", Priority: 2, APIKey: "secret", Timeout: 8 * time.Second},
	}

	list := NewProviderList(cfgs)

	require.Len(t, list, 3)
	assert.Equal(t, []string{"ebay", "depop", "etsy"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, int64(1000), list[0].MinIntervalMS)
	assert.True(t, list[2].HasCredential)

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestProviderOverrideRequest_ToOverride(t *testing.T) {
	interval := "750ms"
	enabled := false
	o, err := ProviderOverrideRequest{MinInterval: &interval, Enabled: &enabled}.ToOverride()
	require.NoError(t, err)
	require.NotNil(t, o.MinInterval)
	assert.Equal(t, 750*time.Millisecond, *o.MinInterval)
	assert.Nil(t, o.Timeout)
	assert.False(t, *o.Enabled)

	bad := "soon"
	_, err = ProviderOverrideRequest{Timeout: &bad}.ToOverride()
	assert.ErrorContains(t, err, "timeout")

	empty, err := ProviderOverrideRequest{}.ToOverride()
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}
