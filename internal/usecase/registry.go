package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Registry owns the tenant lifecycle: shop creation, the one-owner binding,
// and suspension. Shops are never deleted; suspension is the deletion
// substitute and takes effect for the owner's next call.
type Registry struct {
	shops    domain.ShopRepository
	profiles domain.ProfileRepository
	guard    *Guard
	logger   *slog.Logger
}

// NewRegistry creates a new tenant registry.
func NewRegistry(shops domain.ShopRepository, profiles domain.ProfileRepository, guard *Guard, logger *slog.Logger) *Registry {
	return &Registry{
		shops:    shops,
		profiles: profiles,
		guard:    guard,
		logger:   logger.With("component", "registry"),
	}
}

// CreateAndAssignShop creates a shop owned by the caller and binds the caller
// to it. Any authenticated caller without an existing binding may sign up;
// a second shop for the same caller fails with ErrShopAlreadyOwned.
func (r *Registry) CreateAndAssignShop(ctx context.Context, caller domain.Principal, name string) (*domain.Shop, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: shop name is required", domain.ErrInvalidInput)
	}

	profile, err := r.profiles.GetProfile(ctx, caller)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if profile != nil && profile.ShopID != nil {
		return nil, domain.ErrShopAlreadyOwned
	}

	shop := &domain.Shop{
		Owner:    caller,
		Name:     name,
		IsActive: true,
	}
	if err := r.shops.CreateShop(ctx, shop); err != nil {
		return nil, err
	}
	// The binding is the racy part: BindShop enforces set-exactly-once, so a
	// caller racing itself ends up with one bound shop and one orphaned,
	// unreachable shop row.
	if err := r.profiles.BindShop(ctx, caller, &shop.ID); err != nil {
		return nil, err
	}
	r.logger.Info("shop created", "shop_id", shop.ID, "owner", caller)
	return shop, nil
}

// CreateShop creates a shop for a designated owner; super-admin only.
func (r *Registry) CreateShop(ctx context.Context, caller domain.Principal, name string, owner domain.Principal) (*domain.Shop, error) {
	if err := r.guard.RequireSuperAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: shop name is required", domain.ErrInvalidInput)
	}

	shop := &domain.Shop{
		Owner:    owner,
		Name:     name,
		IsActive: true,
	}
	if err := r.shops.CreateShop(ctx, shop); err != nil {
		return nil, err
	}
	if err := r.profiles.BindShop(ctx, owner, &shop.ID); err != nil {
		return nil, err
	}
	return shop, nil
}

// SuspendShop suspends a shop; super-admin only. Effective immediately for
// all subsequent owner calls, not retroactive to in-flight operations.
func (r *Registry) SuspendShop(ctx context.Context, caller domain.Principal, shopID int64) error {
	if err := r.guard.RequireSuperAdmin(ctx, caller); err != nil {
		return err
	}
	if err := r.shops.SetSuspended(ctx, shopID, true); err != nil {
		return err
	}
	r.logger.Info("shop suspended", "shop_id", shopID)
	return nil
}

// ReactivateShop lifts a suspension; super-admin only.
func (r *Registry) ReactivateShop(ctx context.Context, caller domain.Principal, shopID int64) error {
	if err := r.guard.RequireSuperAdmin(ctx, caller); err != nil {
		return err
	}
	if err := r.shops.SetSuspended(ctx, shopID, false); err != nil {
		return err
	}
	r.logger.Info("shop reactivated", "shop_id", shopID)
	return nil
}

// GetAllShops lists every shop; super-admin only.
func (r *Registry) GetAllShops(ctx context.Context, caller domain.Principal) ([]domain.Shop, error) {
	if err := r.guard.RequireSuperAdmin(ctx, caller); err != nil {
		return nil, err
	}
	return r.shops.ListShops(ctx)
}

// GetShop returns shop metadata. The owner and the super-admin may read it;
// this is lifecycle data, not inventory, so the admin is allowed here.
func (r *Registry) GetShop(ctx context.Context, caller domain.Principal, shopID int64) (*domain.Shop, error) {
	shop, err := r.shops.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop.Owner == caller {
		return shop, nil
	}
	if err := r.guard.RequireSuperAdmin(ctx, caller); err != nil {
		return nil, err
	}
	return shop, nil
}
