package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"goflare.io/storefront/models"
)

// DefaultBaseURL is the public Fake Store API.
const DefaultBaseURL = "https://fakestoreapi.com"

var _ Catalog = (*Client)(nil)

// Client talks to a Fake Store compatible HTTP API. It keeps no state
// between calls.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, "list products", "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int) (models.Product, error) {
	var product models.Product
	if err := c.get(ctx, "get product", "/products/"+strconv.Itoa(id), &product); err != nil {
		return models.Product{}, fmt.Errorf("product %d: %w", id, err)
	}
	return product, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.get(ctx, "list categories", "/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) ListProductsByCategory(ctx context.Context, category models.Category) ([]models.Product, error) {
	var products []models.Product
	path := "/products/category/" + url.PathEscape(category)
	if err := c.get(ctx, "list products by category", path, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts fetches the full catalog and filters it locally; the API
// has no search endpoint.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return search(products, query), nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Catalog request failed", zap.String("path", path), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		c.logger.Warn("Catalog request returned unexpected status",
			zap.String("path", path),
			zap.Int("status", res.StatusCode))
		return &TransportError{Op: op, StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	// Fake Store answers 200 with an empty body for unknown ids.
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return ErrNotFound
	}

	if err = json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
