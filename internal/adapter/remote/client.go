package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caffeinepub/rk-solutions/internal/adapter/api/middleware"
	"github.com/caffeinepub/rk-solutions/internal/adapter/api/wire"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Client implements domain.Remote over the inventory service's HTTP API.
// Transport failures surface as domain.ErrRemoteUnavailable so the sync
// queue can distinguish "server unreachable" from a server-side rejection.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateProduct(ctx context.Context, caller domain.Principal, shopID int64, name, description string, initialQuantity, lowStockThreshold int64) (int64, error) {
	body := map[string]any{
		"name":                name,
		"description":         description,
		"initial_quantity":    initialQuantity,
		"low_stock_threshold": lowStockThreshold,
	}
	var created domain.Product
	path := fmt.Sprintf("/v1/shops/%d/products", shopID)
	if err := c.do(ctx, caller, http.MethodPost, path, body, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *Client) UpdateProduct(ctx context.Context, caller domain.Principal, productID int64, name, description string, lowStockThreshold int64) error {
	body := map[string]any{
		"name":                name,
		"description":         description,
		"low_stock_threshold": lowStockThreshold,
	}
	path := fmt.Sprintf("/v1/products/%d", productID)
	return c.do(ctx, caller, http.MethodPut, path, body, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, caller domain.Principal, productID int64) error {
	path := fmt.Sprintf("/v1/products/%d", productID)
	return c.do(ctx, caller, http.MethodDelete, path, nil, nil)
}

func (c *Client) RecordMovement(ctx context.Context, caller domain.Principal, productID int64, quantityChange int64) error {
	body := map[string]any{"quantity_change": quantityChange}
	path := fmt.Sprintf("/v1/products/%d/movements", productID)
	return c.do(ctx, caller, http.MethodPost, path, body, nil)
}

func (c *Client) GetProduct(ctx context.Context, caller domain.Principal, productID int64) (*domain.Product, error) {
	var product domain.Product
	path := fmt.Sprintf("/v1/products/%d", productID)
	if err := c.do(ctx, caller, http.MethodGet, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) SaveProfile(ctx context.Context, caller domain.Principal, profile *domain.UserProfile) error {
	body := map[string]any{"name": profile.Name, "email": profile.Email}
	return c.do(ctx, caller, http.MethodPost, "/v1/profile", body, nil)
}

// Ping probes the health endpoint without authentication.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, caller domain.Principal, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.PrincipalHeader, string(caller))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: server returned %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errResp struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Code == "" {
			return fmt.Errorf("request rejected with status %d", resp.StatusCode)
		}
		return wire.ErrorForCode(errResp.Code)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
