package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// MovementRepository implements domain.MovementRepository on PostgreSQL.
type MovementRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL movement repository.
func NewMovementRepository(db *sql.DB, logger *slog.Logger) *MovementRepository {
	return &MovementRepository{db: db, logger: logger.With("component", "movement_repository")}
}

// Append records a movement and bumps the cached quantity in one transaction.
// The non-negativity check rides on the guarded UPDATE: the row lock it takes
// serializes concurrent movements against the same product, so two
// near-simultaneous sales can never both spend the last unit.
func (r *MovementRepository) Append(ctx context.Context, productID int64, quantityChange int64) (*domain.StockMovement, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	var shopID int64
	guarded := `
		UPDATE products SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING shop_id`
	err = txn.QueryRowContext(ctx, guarded, productID, quantityChange).Scan(&shopID)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish an unknown product from a rejected movement.
		var exists bool
		check := `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`
		if checkErr := txn.QueryRowContext(ctx, check, productID).Scan(&exists); checkErr != nil {
			return nil, fmt.Errorf("failed to check product %d: %w", productID, checkErr)
		}
		if !exists {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply movement to product %d: %w", productID, err)
	}

	movement := domain.StockMovement{
		ProductID:      productID,
		ShopID:         shopID,
		QuantityChange: quantityChange,
	}
	insert := `
		INSERT INTO stock_movements (product_id, shop_id, quantity_change)
		VALUES ($1, $2, $3)
		RETURNING id, recorded_at`
	if err := txn.QueryRowContext(ctx, insert, productID, shopID, quantityChange).
		Scan(&movement.ID, &movement.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to insert movement: %w", err)
	}

	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit movement: %w", err)
	}
	return &movement, nil
}

func (r *MovementRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	query := `
		SELECT id, product_id, shop_id, quantity_change, recorded_at
		FROM stock_movements WHERE product_id = $1 ORDER BY id`
	return r.list(ctx, query, productID)
}

func (r *MovementRepository) ListByShop(ctx context.Context, shopID int64) ([]domain.StockMovement, error) {
	query := `
		SELECT id, product_id, shop_id, quantity_change, recorded_at
		FROM stock_movements WHERE shop_id = $1 ORDER BY id`
	return r.list(ctx, query, shopID)
}

func (r *MovementRepository) list(ctx context.Context, query string, arg int64) ([]domain.StockMovement, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ShopID, &m.QuantityChange, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
