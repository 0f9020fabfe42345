package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/adapter/metrics"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Ledger owns the append-only movement log per product and the derivation of
// current quantity and stock status from it. Quantity is a cached projection:
// it always equals the sum of the product's recorded movements, and the only
// way to change it is to record a movement.
type Ledger struct {
	products  domain.ProductRepository
	movements domain.MovementRepository
	guard     *Guard
	logger    *slog.Logger
	metrics   *metrics.LedgerMetrics
}

// NewLedger creates a new stock ledger. Metrics may be nil.
func NewLedger(products domain.ProductRepository, movements domain.MovementRepository, guard *Guard, logger *slog.Logger, m *metrics.LedgerMetrics) *Ledger {
	return &Ledger{
		products:  products,
		movements: movements,
		guard:     guard,
		logger:    logger.With("component", "ledger"),
		metrics:   m,
	}
}

// CreateProduct creates a product in the caller's shop. A positive initial
// quantity is recorded as a synthetic movement so the ledger invariant holds
// from the very first read.
func (l *Ledger) CreateProduct(ctx context.Context, caller domain.Principal, shopID int64, name, description string, initialQuantity, lowStockThreshold int64) (*domain.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if initialQuantity < 0 {
		return nil, fmt.Errorf("%w: initial quantity must not be negative", domain.ErrInvalidInput)
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: low stock threshold must not be negative", domain.ErrInvalidInput)
	}
	if _, err := l.guard.RequireShopOwner(ctx, caller, shopID); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ShopID:            shopID,
		Name:              name,
		Description:       description,
		Quantity:          0,
		LowStockThreshold: lowStockThreshold,
	}
	if err := l.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	if initialQuantity > 0 {
		if _, err := l.movements.Append(ctx, product.ID, initialQuantity); err != nil {
			// Remove the half-created product so a retry does not leave a
			// duplicate behind.
			if derr := l.products.DeleteProduct(ctx, product.ID); derr != nil {
				l.logger.Error("failed to remove product after initial movement failure", "product_id", product.ID, "error", derr)
			}
			return nil, fmt.Errorf("failed to record initial movement: %w", err)
		}
		product.Quantity = initialQuantity
	}

	l.logger.Info("product created", "product_id", product.ID, "shop_id", shopID, "initial_quantity", initialQuantity)
	return product, nil
}

// UpdateProduct edits the descriptive fields only. Quantity never moves here.
// Last writer wins at this synchronous layer; concurrent edits only arise via
// the offline sync queue, which applies its own timestamp comparison.
func (l *Ledger) UpdateProduct(ctx context.Context, caller domain.Principal, productID int64, name, description string, lowStockThreshold int64) (*domain.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("%w: low stock threshold must not be negative", domain.ErrInvalidInput)
	}
	if _, err := l.ownedProduct(ctx, caller, productID); err != nil {
		return nil, err
	}
	return l.products.UpdateDetails(ctx, productID, name, description, lowStockThreshold)
}

// DeleteProduct removes the product. Its movement history is retained for
// audit but becomes unreachable through the product listing.
func (l *Ledger) DeleteProduct(ctx context.Context, caller domain.Principal, productID int64) error {
	if _, err := l.ownedProduct(ctx, caller, productID); err != nil {
		return err
	}
	if err := l.products.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	l.logger.Info("product deleted", "product_id", productID)
	return nil
}

// RecordMovement appends a movement and atomically updates the cached
// quantity. A movement that would drive the quantity negative is rejected
// with ErrInsufficientStock and leaves both the quantity and the log
// untouched. The check-and-act happens inside the store in a single call,
// never as a client-side read-then-write.
func (l *Ledger) RecordMovement(ctx context.Context, caller domain.Principal, productID int64, quantityChange int64) (*domain.StockMovement, error) {
	if quantityChange == 0 {
		return nil, fmt.Errorf("%w: quantity change must be non-zero", domain.ErrInvalidInput)
	}
	if _, err := l.ownedProduct(ctx, caller, productID); err != nil {
		return nil, err
	}

	movement, err := l.movements.Append(ctx, productID, quantityChange)
	if err != nil {
		// Only stock rejections count toward the rejected label.
		if errors.Is(err, domain.ErrInsufficientStock) {
			l.countMovement("rejected")
		}
		return nil, err
	}
	l.countMovement("recorded")
	l.logger.Debug("movement recorded", "product_id", productID, "change", quantityChange)
	return movement, nil
}

// GetProduct returns a product in the caller's shop.
func (l *Ledger) GetProduct(ctx context.Context, caller domain.Principal, productID int64) (*domain.Product, error) {
	return l.ownedProduct(ctx, caller, productID)
}

// GetShopProducts lists the caller's products. An empty shop is a valid
// empty result.
func (l *Ledger) GetShopProducts(ctx context.Context, caller domain.Principal, shopID int64) ([]domain.Product, error) {
	if _, err := l.guard.RequireShopOwner(ctx, caller, shopID); err != nil {
		return nil, err
	}
	return l.products.ListProducts(ctx, shopID)
}

// GetStockStatus derives the current status from the cached quantity. It is
// recomputed on every read and never persisted, so it cannot go stale.
func (l *Ledger) GetStockStatus(ctx context.Context, caller domain.Principal, productID int64) (domain.StockStatus, error) {
	product, err := l.ownedProduct(ctx, caller, productID)
	if err != nil {
		return domain.StockStatus{}, err
	}
	return product.Status(), nil
}

// GetStockMovements returns a product's ledger in recorded order.
func (l *Ledger) GetStockMovements(ctx context.Context, caller domain.Principal, productID int64) ([]domain.StockMovement, error) {
	if _, err := l.ownedProduct(ctx, caller, productID); err != nil {
		return nil, err
	}
	return l.movements.ListByProduct(ctx, productID)
}

// GetShopStockMovements returns every movement recorded for the caller's
// shop, chronological, including entries for since-deleted products.
func (l *Ledger) GetShopStockMovements(ctx context.Context, caller domain.Principal, shopID int64) ([]domain.StockMovement, error) {
	if _, err := l.guard.RequireShopOwner(ctx, caller, shopID); err != nil {
		return nil, err
	}
	return l.movements.ListByShop(ctx, shopID)
}

// ownedProduct loads the product and verifies the caller owns its shop.
func (l *Ledger) ownedProduct(ctx context.Context, caller domain.Principal, productID int64) (*domain.Product, error) {
	product, err := l.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := l.guard.RequireShopOwner(ctx, caller, product.ShopID); err != nil {
		return nil, err
	}
	return product, nil
}

func (l *Ledger) countMovement(status string) {
	if l.metrics != nil {
		l.metrics.MovementsTotal.WithLabelValues(status).Inc()
	}
}
