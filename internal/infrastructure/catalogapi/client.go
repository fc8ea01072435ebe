package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/shelfgear/backend/internal/domain"
	"golang.org/x/time/rate"
)

// ProviderName tags metadata fetched through the structured product API.
const ProviderName = "catalog-api"

// Client is the primary, structured metadata provider. It talks to the
// product data API with an API key and keeps under the vendor quota with a
// client-side rate limiter.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a product API client.
func NewClient(apiKey, baseURL string) *Client {
	// The vendor allows 3600 requests per hour, so 1 request/sec with a
	// small burst keeps well inside the quota.
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug enables request/response logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// Name implements domain.MetadataProvider.
func (c *Client) Name() string {
	return ProviderName
}

// TryFetch looks the identifier up in the product data API. Quota denials,
// unknown identifiers, server errors and transport timeouts all wrap
// ErrProviderUnavailable: they are normal provider failures, eligible for
// fallback to the next provider in the chain.
func (c *Client) TryFetch(ctx context.Context, id domain.ProductIdentifier) (*domain.ProductMetadata, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: empty identifier", domain.ErrInvalidRequest)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrProviderUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/v1/products/%s", c.baseURL, url.PathEscape(id.ASIN))
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	if id.Marketplace != "" {
		params.Add("marketplace", id.Marketplace)
	}
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ShelfGear/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: no product data for %s", domain.ErrProviderUnavailable, id.Key())
	case http.StatusTooManyRequests, http.StatusForbidden:
		return nil, fmt.Errorf("%w: quota denied (status %d)", domain.ErrProviderUnavailable, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if c.debug {
			log.Printf("[CATALOG-API] Unexpected status %d for %s: %s", resp.StatusCode, id.Key(), string(body))
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrProviderUnavailable, err)
	}

	if c.debug {
		log.Printf("[CATALOG-API] Fetched %s: %q (%d attribute fragments)",
			id.Key(), payload.Title, len(payload.Attributes))
	}

	return mapToMetadata(id, &payload), nil
}
