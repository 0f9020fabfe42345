package domain

import "time"

// Product is a shop-scoped inventory item. Quantity is a cached projection of
// the product's movement ledger: it always equals the sum of all recorded
// QuantityChange values and is never mutated by a direct field write.
// UpdatedAt is the server-apply time of the last descriptive edit and is the
// reference point for the offline queue's last-write-wins conflict check.
type Product struct {
	ID                int64     `json:"id"`
	ShopID            int64     `json:"shop_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StockMovement is one append-only ledger entry. Positive QuantityChange is a
// restock, negative a sale or consumption. Movements are never mutated or
// deleted, and are retained for audit even after their product is removed.
type StockMovement struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	ShopID         int64     `json:"shop_id"`
	QuantityChange int64     `json:"quantity_change"`
	Timestamp      time.Time `json:"timestamp"`
}

// StockLevel identifies the variant of a derived StockStatus.
type StockLevel string

const (
	StockLevelOut = StockLevel("outOfStock")
	StockLevelLow = StockLevel("lowStock")
	StockLevelIn  = StockLevel("inStock")
)

// StockStatus is the derived stock classification of a product. It is computed
// on every read and never persisted, so it cannot go stale relative to the
// ledger. Quantity is populated for the lowStock variant.
type StockStatus struct {
	Level    StockLevel `json:"level"`
	Quantity int64      `json:"quantity,omitempty"`
}

// StatusOf derives the stock status from a quantity and threshold.
func StatusOf(quantity, lowStockThreshold int64) StockStatus {
	switch {
	case quantity == 0:
		return StockStatus{Level: StockLevelOut}
	case quantity <= lowStockThreshold:
		return StockStatus{Level: StockLevelLow, Quantity: quantity}
	default:
		return StockStatus{Level: StockLevelIn}
	}
}

// Status derives the product's current stock status.
func (p *Product) Status() StockStatus {
	return StatusOf(p.Quantity, p.LowStockThreshold)
}

// ShopDashboard is the derived per-shop analytics view: product count plus the
// low-stock and out-of-stock classifications, computed in one pass over the
// current product set and never cached.
type ShopDashboard struct {
	TotalProducts      int64     `json:"total_products"`
	LowStockCount      int64     `json:"low_stock_count"`
	OutOfStockCount    int64     `json:"out_of_stock_count"`
	LowStockProducts   []Product `json:"low_stock_products"`
	OutOfStockProducts []Product `json:"out_of_stock_products"`
}

// StockAlert is published when a product's derived status transitions into
// lowStock or outOfStock.
type StockAlert struct {
	ShopID    int64       `json:"shop_id"`
	ProductID int64       `json:"product_id"`
	Name      string      `json:"name"`
	Status    StockStatus `json:"status"`
	At        time.Time   `json:"at"`
}
