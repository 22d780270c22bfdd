package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	httpclient "replydesk/internal/common/http"
	"replydesk/internal/common/logger"
	"replydesk/internal/models"
)

// MarketplaceProvider fetches order facts from the marketplace order
// API, with a short-lived Redis cache in front of it. Buyers often send
// several messages about the same order in quick succession, so the
// cache saves repeated upstream round trips.
type MarketplaceProvider struct {
	baseURL  string
	apiKey   string
	client   *httpclient.Client
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

type MarketplaceConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NewMarketplaceProvider builds the adapter. cache may be nil, in which
// case every lookup goes upstream.
func NewMarketplaceProvider(cfg MarketplaceConfig, cache *redis.Client, log logger.Logger) *MarketplaceProvider {
	return &MarketplaceProvider{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		client:   httpclient.NewClient(cfg.Timeout),
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logger:   log.With(map[string]interface{}{"component": "marketplace-facts"}),
	}
}

func (p *MarketplaceProvider) FetchFacts(ctx context.Context, accountID, orderID string) models.FactsResult {
	if orderID == "" {
		return models.FactsResult{OK: false, Reason: models.ReasonOrderIDMissing}
	}

	cacheKey := fmt.Sprintf("facts:%s:%s", accountID, orderID)
	if p.cache != nil {
		if val, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
			var order models.OrderFacts
			if err := json.Unmarshal([]byte(val), &order); err == nil {
				return models.FactsResult{OK: true, Order: &order}
			}
		}
	}

	url := fmt.Sprintf("%s/accounts/%s/orders/%s", p.baseURL, accountID, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.FactsResult{OK: false, Reason: models.ReasonUpstreamUnavailable}
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("order lookup failed", map[string]interface{}{
			"orderId": orderID,
			"error":   err.Error(),
		})
		return models.FactsResult{OK: false, Reason: models.ReasonUpstreamUnavailable}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return models.FactsResult{OK: false, Reason: models.ReasonAccountNotLinked}
	case resp.StatusCode == http.StatusNotFound:
		// The identifier did not resolve to an order on this account.
		return models.FactsResult{OK: false, Reason: models.ReasonOrderIDMissing}
	case resp.StatusCode != http.StatusOK:
		p.logger.Warn("order lookup returned non-OK status", map[string]interface{}{
			"orderId": orderID,
			"status":  resp.StatusCode,
		})
		return models.FactsResult{OK: false, Reason: models.ReasonUpstreamUnavailable}
	}

	var order models.OrderFacts
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		p.logger.Warn("order payload decode failed", map[string]interface{}{
			"orderId": orderID,
			"error":   err.Error(),
		})
		return models.FactsResult{OK: false, Reason: models.ReasonUpstreamUnavailable}
	}

	if p.cache != nil {
		if data, err := json.Marshal(order); err == nil {
			if err := p.cache.Set(ctx, cacheKey, data, p.cacheTTL).Err(); err != nil {
				p.logger.Debug("facts cache write failed", map[string]interface{}{
					"orderId": orderID,
					"error":   err.Error(),
				})
			}
		}
	}

	return models.FactsResult{OK: true, Order: &order}
}
