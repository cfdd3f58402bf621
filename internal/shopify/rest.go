package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"shopkeeper/internal/config"
	"shopkeeper/internal/logger"
)

// REST errors.
var (
	ErrMissingProductID = errors.New("create response missing product id")
)

// RESTClient talks to the Admin REST API. Unlike the GraphQL client it
// retries transient failures and paces requests, since the sync push can
// issue thousands of calls per run.
type RESTClient struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	retryPolicy *config.RetryPolicy
	rateLimiter *rate.Limiter
	logger      *logger.Logger
}

// RESTProduct is a product row as returned by the Admin REST listing.
type RESTProduct struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Variants []RESTVariant `json:"variants"`
}

// RESTVariant is one variant row of a RESTProduct.
type RESTVariant struct {
	ID              int64  `json:"id"`
	ProductID       int64  `json:"product_id"`
	SKU             string `json:"sku"`
	InventoryItemID int64  `json:"inventory_item_id"`
}

// ProductPayload is the body of a product create or update call.
type ProductPayload struct {
	Product ProductFields `json:"product"`
}

// ProductFields carries the writable product fields. body_html is always
// sent so that an emptied description propagates on update.
type ProductFields struct {
	ID          int64            `json:"id,omitempty"`
	Title       string           `json:"title,omitempty"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor,omitempty"`
	ProductType string           `json:"product_type,omitempty"`
	Tags        string           `json:"tags,omitempty"`
	Handle      string           `json:"handle,omitempty"`
	PublishedAt string           `json:"published_at,omitempty"`
	CreatedAt   string           `json:"created_at,omitempty"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
	Options     []ProductOption  `json:"options,omitempty"`
	Variants    []VariantPayload `json:"variants,omitempty"`
	Images      []ImagePayload   `json:"images,omitempty"`
}

// ProductOption names a product option axis.
type ProductOption struct {
	Name string `json:"name"`
}

// VariantPayload carries the writable variant fields. The pointer fields
// are copied from the brand file only when present.
type VariantPayload struct {
	Option1             string   `json:"option1"`
	Price               string   `json:"price"`
	SKU                 string   `json:"sku"`
	InventoryQuantity   int      `json:"inventory_quantity"`
	InventoryManagement string   `json:"inventory_management"`
	InventoryPolicy     string   `json:"inventory_policy"`
	Barcode             *string  `json:"barcode,omitempty"`
	Weight              *float64 `json:"weight,omitempty"`
	WeightUnit          *string  `json:"weight_unit,omitempty"`
	Taxable             *bool    `json:"taxable,omitempty"`
}

// ImagePayload references a product image by source URL.
type ImagePayload struct {
	Src string `json:"src"`
}

// inventoryLevelPayload is the body of an inventory_levels/set call.
type inventoryLevelPayload struct {
	LocationID      int64 `json:"location_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int   `json:"available"`
}

// NewRESTClient creates a REST client for the given Admin base URL.
// requestsPerSecond paces the client below Shopify's REST bucket rate.
func NewRESTClient(baseURL, token string, retryPolicy *config.RetryPolicy, requestsPerSecond float64, log *logger.Logger) *RESTClient {
	return &RESTClient{
		httpClient: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       token,
		retryPolicy: retryPolicy,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 4),
		logger:      log,
	}
}

// do executes one Admin REST request with rate limiting and retries.
// It returns the response body and headers of the first 2xx response.
func (c *RESTClient) do(ctx context.Context, method, url string, payload any) ([]byte, http.Header, error) {
	var jsonBody []byte

	if payload != nil {
		var err error

		jsonBody, err = json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error

	for attempt := 1; attempt <= c.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retryPolicy.GetRetryDelay(attempt)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, nil, ctx.Err()
				}
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter error: %w", err)
		}

		var bodyReader io.Reader = http.NoBody
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, c.retryPolicy.MaxAttempts, err)

			continue
		}

		// Limit response size to 10MB
		reader := io.LimitReader(resp.Body, 10*1024*1024)
		body, readErr := io.ReadAll(reader)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", readErr)

			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, resp.Header, nil
		}

		lastErr = fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, string(body))

		if !isRetryableStatus(resp.StatusCode) {
			return nil, nil, lastErr
		}

		if c.logger != nil {
			c.logger.Warn("Retrying REST request",
				"method", method,
				"status", resp.StatusCode,
				"attempt", attempt,
			)
		}
	}

	return nil, nil, lastErr
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	// Retry on temporary failures
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}

// ListAllProducts pages through products.json following rel="next" Link
// headers until the listing is exhausted.
func (c *RESTClient) ListAllProducts(ctx context.Context) ([]RESTProduct, error) {
	var all []RESTProduct

	url := fmt.Sprintf("%s/products.json?limit=250", c.baseURL)

	for url != "" {
		body, header, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("product listing failed: %w", err)
		}

		var page struct {
			Products []RESTProduct `json:"products"`
		}

		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse product listing: %w", err)
		}

		all = append(all, page.Products...)
		url = nextPageURL(header.Get("Link"))
	}

	return all, nil
}

// nextPageURL extracts the rel="next" target from a Link header.
// Returns "" when there is no next page.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}

		start := strings.Index(part, "<")
		end := strings.Index(part, ">")

		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}

	return ""
}

// CreateProduct POSTs a new product and returns its numeric id.
func (c *RESTClient) CreateProduct(ctx context.Context, payload *ProductPayload) (int64, error) {
	body, _, err := c.do(ctx, http.MethodPost, c.baseURL+"/products.json", payload)
	if err != nil {
		return 0, fmt.Errorf("product create failed: %w", err)
	}

	id := gjson.GetBytes(body, "product.id").Int()
	if id == 0 {
		return 0, ErrMissingProductID
	}

	return id, nil
}

// UpdateProduct PUTs product fields onto an existing product.
func (c *RESTClient) UpdateProduct(ctx context.Context, id int64, payload *ProductPayload) error {
	url := fmt.Sprintf("%s/products/%d.json", c.baseURL, id)

	if _, _, err := c.do(ctx, http.MethodPut, url, payload); err != nil {
		return fmt.Errorf("product update failed: %w", err)
	}

	return nil
}

// PublishProduct PUTs only published_at onto a product, leaving every
// other field untouched.
func (c *RESTClient) PublishProduct(ctx context.Context, id int64, publishedAt string) error {
	body := map[string]interface{}{
		"product": map[string]interface{}{
			"id":           id,
			"published_at": publishedAt,
		},
	}

	url := fmt.Sprintf("%s/products/%d.json", c.baseURL, id)

	if _, _, err := c.do(ctx, http.MethodPut, url, body); err != nil {
		return fmt.Errorf("product publish failed: %w", err)
	}

	return nil
}

// SetInventoryLevel POSTs an absolute inventory level for an inventory item
// at a location.
func (c *RESTClient) SetInventoryLevel(ctx context.Context, locationID, inventoryItemID int64, available int) error {
	payload := inventoryLevelPayload{
		LocationID:      locationID,
		InventoryItemID: inventoryItemID,
		Available:       available,
	}

	url := c.baseURL + "/inventory_levels/set.json"

	if _, _, err := c.do(ctx, http.MethodPost, url, &payload); err != nil {
		return fmt.Errorf("inventory set failed: %w", err)
	}

	return nil
}
