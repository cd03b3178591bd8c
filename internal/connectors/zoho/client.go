package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/zoho-inventory-sink/internal/core/domain"
	"github.com/custodia-labs/zoho-inventory-sink/internal/core/ports/driven"
	"github.com/custodia-labs/zoho-inventory-sink/internal/logger"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 30 * time.Second

// RemoteRecord is one entity returned by a list endpoint. Records are
// read-only: the sink only searches them and references their IDs.
type RemoteRecord map[string]any

// StringField returns the record's value for key when it is a string.
func (r RemoteRecord) StringField(key string) string {
	v, ok := r[key].(string)
	if !ok {
		return ""
	}
	return v
}

// PageContext is the pagination metadata carried on every list
// response.
type PageContext struct {
	Page        int  `json:"page"`
	HasMorePage bool `json:"has_more_page"`
}

// Client performs authenticated calls against the Zoho Inventory API.
// All requests go through the oauth2 transport, which attaches
// "Authorization: Zoho-oauthtoken <token>" using a token pulled from
// the token provider on each call.
type Client struct {
	baseURL     string
	orgID       string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the derived regional API base URL.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithRateLimit overrides the outbound rate limit configuration.
func WithRateLimit(cfg RateLimitConfig) ClientOption {
	return func(c *Client) { c.rateLimiter = NewRateLimiterWithConfig(cfg) }
}

// NewClient creates an API client for the region derived from the
// credential document, authenticating through the given token provider.
func NewClient(creds domain.Credentials, provider driven.TokenProvider, opts ...ClientOption) *Client {
	// The transport uses the token source directly, not oauth2.NewClient:
	// NewClient wraps the source in a ReuseTokenSource, which would pin
	// the first token forever since the adapter's tokens carry no expiry.
	// Validity lives in the provider, so every request must reach it.
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: NewTokenSource(context.Background(), provider),
		},
		Timeout: DefaultTimeout,
	}

	c := &Client{
		baseURL:     APIBase(creds),
		orgID:       creds.OrganizationID,
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PaginatedSearch lists every record of the resource whose filter field
// contains the query text, walking page_context until the remote
// reports no further pages. Records are returned in page order.
func (c *Client) PaginatedSearch(ctx context.Context, res Resource, query string) ([]RemoteRecord, error) {
	logger.Info("searching %s for %q", res.Path, query)

	params := url.Values{}
	params.Set(res.FilterField, query)
	if c.orgID != "" {
		params.Set("organization_id", c.orgID)
	}

	records, page, err := c.searchPage(ctx, res, params)
	if err != nil {
		return nil, err
	}

	for page.HasMorePage {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		logger.Debug("fetching %s page %d", res.Path, page.Page+1)
		params.Set("page", strconv.Itoa(page.Page+1))

		var more []RemoteRecord
		more, page, err = c.searchPage(ctx, res, params)
		if err != nil {
			return nil, err
		}
		records = append(records, more...)
	}

	return records, nil
}

// searchPage fetches one page of a list endpoint and decodes the
// resource's collection plus the page context.
func (c *Client) searchPage(ctx context.Context, res Resource, params url.Values) ([]RemoteRecord, PageContext, error) {
	body, err := c.do(ctx, http.MethodGet, res.Path, params, nil)
	if err != nil {
		return nil, PageContext{}, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, PageContext{}, fmt.Errorf("decode %s response: %w", res.Path, err)
	}

	var page PageContext
	if raw, ok := envelope["page_context"]; ok {
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, PageContext{}, fmt.Errorf("decode %s page context: %w", res.Path, err)
		}
	}

	raw, ok := envelope[res.CollectionKey]
	if !ok {
		return nil, PageContext{}, fmt.Errorf("%s response missing %q collection", res.Path, res.CollectionKey)
	}
	var records []RemoteRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, PageContext{}, fmt.Errorf("decode %s records: %w", res.Path, err)
	}

	return records, page, nil
}

// CreatePurchaseOrder submits a translated purchase order. The response
// body is not inspected beyond the status code.
func (c *Client) CreatePurchaseOrder(ctx context.Context, payload PurchaseOrderPayload) error {
	logger.Info("posting record to %s", purchaseOrdersPath)

	params := url.Values{}
	if c.orgID != "" {
		params.Set("organization_id", c.orgID)
	}

	_, err := c.do(ctx, http.MethodPost, purchaseOrdersPath, params, payload)
	return err
}

// do performs one rate-limited, authenticated request and returns the
// response body. Non-2xx statuses become *APIError; a 429 additionally
// records backoff on the rate limiter.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			c.rateLimiter.RecordRateLimitError(retryAfter)
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       string(body),
		}
	}

	return body, nil
}
