package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// ShopRepository implements domain.ShopRepository on PostgreSQL.
type ShopRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewShopRepository creates a new PostgreSQL shop repository.
func NewShopRepository(db *sql.DB, logger *slog.Logger) *ShopRepository {
	return &ShopRepository{db: db, logger: logger.With("component", "shop_repository")}
}

func (r *ShopRepository) CreateShop(ctx context.Context, shop *domain.Shop) error {
	query := `
		INSERT INTO shops (owner, name, is_active, is_suspended)
		VALUES ($1, $2, $3, $4)
		RETURNING id, last_updated`
	err := r.db.QueryRowContext(ctx, query, string(shop.Owner), shop.Name, shop.IsActive, shop.IsSuspended).
		Scan(&shop.ID, &shop.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to insert shop: %w", err)
	}
	return nil
}

func (r *ShopRepository) GetShop(ctx context.Context, id int64) (*domain.Shop, error) {
	query := `SELECT id, owner, name, is_active, is_suspended, last_updated FROM shops WHERE id = $1`
	var shop domain.Shop
	var owner string
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&shop.ID, &owner, &shop.Name, &shop.IsActive, &shop.IsSuspended, &shop.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shop %d: %w", id, err)
	}
	shop.Owner = domain.Principal(owner)
	return &shop, nil
}

func (r *ShopRepository) ListShops(ctx context.Context) ([]domain.Shop, error) {
	query := `SELECT id, owner, name, is_active, is_suspended, last_updated FROM shops ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer rows.Close()

	shops := make([]domain.Shop, 0)
	for rows.Next() {
		var shop domain.Shop
		var owner string
		if err := rows.Scan(&shop.ID, &owner, &shop.Name, &shop.IsActive, &shop.IsSuspended, &shop.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan shop row: %w", err)
		}
		shop.Owner = domain.Principal(owner)
		shops = append(shops, shop)
	}
	return shops, rows.Err()
}

func (r *ShopRepository) SetSuspended(ctx context.Context, id int64, suspended bool) error {
	query := `UPDATE shops SET is_suspended = $2, last_updated = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, suspended)
	if err != nil {
		return fmt.Errorf("failed to update shop suspension: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
