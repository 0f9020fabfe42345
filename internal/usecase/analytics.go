package usecase

import (
	"context"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Analytics derives shop-level dashboard metrics by reducing over the current
// product set. Nothing is cached across calls, so the dashboard is always
// consistent with the ledger's cached quantities.
type Analytics struct {
	products domain.ProductRepository
	guard    *Guard
	logger   *slog.Logger
}

// NewAnalytics creates a new analytics aggregator.
func NewAnalytics(products domain.ProductRepository, guard *Guard, logger *slog.Logger) *Analytics {
	return &Analytics{
		products: products,
		guard:    guard,
		logger:   logger.With("component", "analytics"),
	}
}

// GetShopAnalytics computes the dashboard for one shop in a single pass:
// total product count plus the low-stock and out-of-stock counts and lists.
func (a *Analytics) GetShopAnalytics(ctx context.Context, caller domain.Principal, shopID int64) (*domain.ShopDashboard, error) {
	if _, err := a.guard.RequireShopOwner(ctx, caller, shopID); err != nil {
		return nil, err
	}

	products, err := a.products.ListProducts(ctx, shopID)
	if err != nil {
		return nil, err
	}

	dashboard := &domain.ShopDashboard{
		TotalProducts:      int64(len(products)),
		LowStockProducts:   make([]domain.Product, 0),
		OutOfStockProducts: make([]domain.Product, 0),
	}
	for _, p := range products {
		switch p.Status().Level {
		case domain.StockLevelOut:
			dashboard.OutOfStockCount++
			dashboard.OutOfStockProducts = append(dashboard.OutOfStockProducts, p)
		case domain.StockLevelLow:
			dashboard.LowStockCount++
			dashboard.LowStockProducts = append(dashboard.LowStockProducts, p)
		}
	}
	return dashboard, nil
}

// GetLowStockProducts lists products at or below their threshold but not out
// of stock.
func (a *Analytics) GetLowStockProducts(ctx context.Context, caller domain.Principal, shopID int64) ([]domain.Product, error) {
	dashboard, err := a.GetShopAnalytics(ctx, caller, shopID)
	if err != nil {
		return nil, err
	}
	return dashboard.LowStockProducts, nil
}

// GetOutOfStockProducts lists products with zero quantity.
func (a *Analytics) GetOutOfStockProducts(ctx context.Context, caller domain.Principal, shopID int64) ([]domain.Product, error) {
	dashboard, err := a.GetShopAnalytics(ctx, caller, shopID)
	if err != nil {
		return nil, err
	}
	return dashboard.OutOfStockProducts, nil
}
