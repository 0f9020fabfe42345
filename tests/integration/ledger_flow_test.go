package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// End-to-end exercise of the inventory API against a running server.
// Set INVENTORY_API_URL (e.g. http://localhost:8080) to enable; the
// server must be backed by an empty database.
func apiURL(t *testing.T) string {
	url := os.Getenv("INVENTORY_API_URL")
	if url == "" {
		t.Skip("INVENTORY_API_URL not set, skipping integration test")
	}
	return url
}

func doJSON(t *testing.T, method, url, principal string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Principal", principal)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestLedgerFlow(t *testing.T) {
	base := apiURL(t)
	owner := fmt.Sprintf("it-owner-%d", time.Now().UnixNano())
	outsider := owner + "-outsider"

	// Register a profile and a shop for the owner.
	var profile struct {
		Name string `json:"name"`
	}
	if status := doJSON(t, http.MethodPost, base+"/v1/profile", owner, map[string]string{"name": "Flow Tester", "email": "flow@example.com"}, &profile); status != http.StatusOK {
		t.Fatalf("save profile: expected 200, got %d", status)
	}

	var shop struct {
		ID int64 `json:"id"`
	}
	if status := doJSON(t, http.MethodPost, base+"/v1/shops", owner, map[string]string{"name": "Flow Shop"}, &shop); status != http.StatusCreated {
		t.Fatalf("create shop: expected 201, got %d", status)
	}

	// A second shop for the same owner must be rejected.
	if status := doJSON(t, http.MethodPost, base+"/v1/shops", owner, map[string]string{"name": "Second Shop"}, nil); status != http.StatusConflict {
		t.Fatalf("second shop: expected 409, got %d", status)
	}

	// Create a product with initial stock.
	var product struct {
		ID       int64 `json:"id"`
		Quantity int64 `json:"quantity"`
	}
	createBody := map[string]any{"name": "Widget", "description": "test widget", "initial_quantity": 10, "low_stock_threshold": 3}
	if status := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/shops/%d/products", base, shop.ID), owner, createBody, &product); status != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d", status)
	}
	if product.Quantity != 10 {
		t.Fatalf("expected initial quantity 10, got %d", product.Quantity)
	}

	movementURL := fmt.Sprintf("%s/v1/products/%d/movements", base, product.ID)

	// Issue stock down to 3, then 0, then attempt an overdraw.
	if status := doJSON(t, http.MethodPost, movementURL, owner, map[string]int64{"quantity_change": -7}, nil); status != http.StatusCreated {
		t.Fatalf("issue 7: expected 201, got %d", status)
	}
	if status := doJSON(t, http.MethodPost, movementURL, owner, map[string]int64{"quantity_change": -3}, nil); status != http.StatusCreated {
		t.Fatalf("issue 3: expected 201, got %d", status)
	}
	if status := doJSON(t, http.MethodPost, movementURL, owner, map[string]int64{"quantity_change": -1}, nil); status != http.StatusConflict {
		t.Fatalf("overdraw: expected 409, got %d", status)
	}

	// Quantity must still equal the sum of accepted movements.
	var stockStatus struct {
		Level    string `json:"level"`
		Quantity int64  `json:"quantity"`
	}
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/products/%d/status", base, product.ID), owner, nil, &stockStatus); status != http.StatusOK {
		t.Fatalf("stock status: expected 200, got %d", status)
	}
	if stockStatus.Quantity != 0 || stockStatus.Level != "outOfStock" {
		t.Fatalf("expected quantity 0 outOfStock, got %d %q", stockStatus.Quantity, stockStatus.Level)
	}

	// An outsider must not see the product.
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/products/%d", base, product.ID), outsider, nil, nil); status != http.StatusForbidden {
		t.Fatalf("outsider read: expected 403, got %d", status)
	}

	// Analytics reflect the out-of-stock product.
	var dashboard struct {
		TotalProducts   int64 `json:"total_products"`
		OutOfStockCount int64 `json:"out_of_stock_count"`
	}
	if status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/shops/%d/analytics", base, shop.ID), owner, nil, &dashboard); status != http.StatusOK {
		t.Fatalf("analytics: expected 200, got %d", status)
	}
	if dashboard.TotalProducts != 1 || dashboard.OutOfStockCount != 1 {
		t.Fatalf("expected 1 product with 1 out of stock, got %+v", dashboard)
	}
}
