package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

// DefaultTimeout applies when the caller does not supply an http.Client.
const DefaultTimeout = 5 * time.Second

var _ ports.InventoryService = (*Client)(nil)

// Client reads stock and product details from the catalog API
// (`GET /stock/{id}` and `GET /products/{id}`).
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type stockPayload struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type productPayload struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// NewClient instantiates the inventory client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("inventory base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse inventory base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("inventory base URL %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{baseURL: parsed, http: httpClient}, nil
}

// Stock fetches the available amount of a product.
func (c *Client) Stock(ctx context.Context, id domain.ProductID) (domain.Stock, error) {
	var payload stockPayload
	if err := c.get(ctx, "stock", id, &payload); err != nil {
		return domain.Stock{}, err
	}
	if payload.Amount < 0 {
		return domain.Stock{}, fmt.Errorf("inventory returned negative stock %d for product %d", payload.Amount, id)
	}
	return domain.Stock{ProductID: id, Amount: payload.Amount}, nil
}

// Product fetches the catalog details of a product.
func (c *Client) Product(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var payload productPayload
	if err := c.get(ctx, "products", id, &payload); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:    id,
		Title: payload.Title,
		Price: payload.Price,
		Image: payload.Image,
	}, nil
}

func (c *Client) get(ctx context.Context, resource string, id domain.ProductID, out any) error {
	if c == nil || c.http == nil {
		return errors.New("inventory client not configured")
	}
	endpoint := c.baseURL.JoinPath(resource, strconv.FormatInt(int64(id), 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call inventory API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %d", ports.ErrProductNotFound, resource, id)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inventory API unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode inventory %s response: %w", resource, err)
	}
	return nil
}
