package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// ProductRepository implements domain.ProductRepository on PostgreSQL.
// Quantity is never written here: it only moves through the movement
// repository's guarded append.
type ProductRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProductRepository creates a new PostgreSQL product repository.
func NewProductRepository(db *sql.DB, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{db: db, logger: logger.With("component", "product_repository")}
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (shop_id, name, description, quantity, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		product.ShopID, product.Name, product.Description, product.Quantity, product.LowStockThreshold).
		Scan(&product.ID, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, shop_id, name, description, quantity, low_stock_threshold, updated_at
		FROM products WHERE id = $1`
	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Quantity, &p.LowStockThreshold, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	return &p, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, shopID int64) ([]domain.Product, error) {
	query := `
		SELECT id, shop_id, name, description, quantity, low_stock_threshold, updated_at
		FROM products WHERE shop_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for shop %d: %w", shopID, err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Quantity, &p.LowStockThreshold, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) UpdateDetails(ctx context.Context, id int64, name, description string, lowStockThreshold int64) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $2, description = $3, low_stock_threshold = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, shop_id, name, description, quantity, low_stock_threshold, updated_at`
	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id, name, description, lowStockThreshold).
		Scan(&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Quantity, &p.LowStockThreshold, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return &p, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	// The movement history is deliberately left in place for audit.
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return requireAffected(res)
}
