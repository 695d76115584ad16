// Package inventario is the outbound HTTP client for the inventory service.
package inventario

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every inventory call when the caller does not supply an http.Client.
const DefaultTimeout = 5 * time.Second

// ErrProductNotFound is returned when the inventory answers 404 for a product.
var ErrProductNotFound = errors.New("inventory product not found")

// Product mirrors the inventory product resource.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion,omitempty"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	SupplierID  string          `json:"provedor_id,omitempty"`
	ImageURL    string          `json:"imagen_url,omitempty"`
}

type stockMovement struct {
	Quantity int `json:"cantidad"`
}

// APIError carries a non-success inventory response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("inventory API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("inventory API returned status %d: %s", e.StatusCode, e.Detail)
}

// Client talks to the inventory REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient builds a client rooted at baseURL (for example http://localhost:8016/farmasync/inventario).
// A nil httpClient gets DefaultTimeout and an OpenTelemetry transport.
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
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// GetProduct fetches a product by identifier.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("product id is required")
	}
	var product Product
	status, err := c.do(ctx, http.MethodGet, c.endpoint(url.PathEscape(id)), nil, &product)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}
	return &product, nil
}

// SearchProducts looks products up by name. The inventory answers 404 for no matches,
// which is reported as an empty result.
func (c *Client) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	endpoint := c.endpoint("buscar") + "?" + url.Values{"nombre": []string{name}}.Encode()
	var products []Product
	status, err := c.do(ctx, http.MethodGet, endpoint, nil, &products)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return products, nil
}

// RegisterStockIn adds quantity units to the product stock.
func (c *Client) RegisterStockIn(ctx context.Context, id string, quantity int) error {
	return c.moveStock(ctx, id, "entrada", quantity)
}

// RegisterStockOut removes quantity units from the product stock.
func (c *Client) RegisterStockOut(ctx context.Context, id string, quantity int) error {
	return c.moveStock(ctx, id, "salida", quantity)
}

func (c *Client) moveStock(ctx context.Context, id, direction string, quantity int) error {
	if err := c.ensure(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("product id is required")
	}
	if quantity <= 0 {
		return errors.New("stock movement quantity must be greater than zero")
	}
	status, err := c.do(ctx, http.MethodPost, c.endpoint(url.PathEscape(id), direction), stockMovement{Quantity: quantity}, nil)
	if err != nil && status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return err
}

func (c *Client) endpoint(segments ...string) string {
	return c.baseURL.String() + "/" + strings.Join(segments, "/")
}

// do executes the request and decodes a 2xx body into out. It returns the status code
// alongside any error so callers can special-case 404.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode inventory request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("build inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call inventory API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return resp.StatusCode, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode inventory response: %w", err)
		}
		return resp.StatusCode, nil
	default:
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}
}

// errorDetail extracts the FastAPI style {"detail": "..."} message.
func errorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != nil {
		if msg, ok := payload.Detail.(string); ok {
			return strings.TrimSpace(msg)
		}
		encoded, _ := json.Marshal(payload.Detail)
		return string(encoded)
	}
	return strings.TrimSpace(string(raw))
}

func (c *Client) ensure() error {
	if c == nil || c.httpClient == nil || c.baseURL == nil {
		return errors.New("inventory client not configured")
	}
	return nil
}
