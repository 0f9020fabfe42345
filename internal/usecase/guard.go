package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/adapter/metrics"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Guard classifies callers and enforces tenant scoping. Every other usecase
// routes its authorization checks through here.
//
// The super-admin is deliberately denied access to shop inventory: tenant
// data is isolated from the platform operator, who only manages the shop
// lifecycle itself.
type Guard struct {
	profiles domain.ProfileRepository
	shops    domain.ShopRepository
	logger   *slog.Logger
	metrics  *metrics.LedgerMetrics
}

// NewGuard creates a new authorization guard. Metrics may be nil.
func NewGuard(profiles domain.ProfileRepository, shops domain.ShopRepository, logger *slog.Logger, m *metrics.LedgerMetrics) *Guard {
	return &Guard{
		profiles: profiles,
		shops:    shops,
		logger:   logger.With("component", "guard"),
		metrics:  m,
	}
}

// RoleOf classifies a caller: admin if it carries the super-admin flag, user
// if it is bound to a shop, guest otherwise (including callers with no
// profile yet).
func (g *Guard) RoleOf(ctx context.Context, caller domain.Principal) (domain.Role, error) {
	profile, err := g.profiles.GetProfile(ctx, caller)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RoleGuest, nil
	}
	if err != nil {
		return "", err
	}
	switch {
	case profile.IsSuperAdmin:
		return domain.RoleAdmin, nil
	case profile.ShopID != nil:
		return domain.RoleUser, nil
	default:
		return domain.RoleGuest, nil
	}
}

// IsSuperAdmin reports whether the caller is the platform super-admin.
func (g *Guard) IsSuperAdmin(ctx context.Context, caller domain.Principal) (bool, error) {
	role, err := g.RoleOf(ctx, caller)
	if err != nil {
		return false, err
	}
	return role == domain.RoleAdmin, nil
}

// RequireSuperAdmin fails with ErrUnauthorized unless the caller is the
// super-admin.
func (g *Guard) RequireSuperAdmin(ctx context.Context, caller domain.Principal) error {
	isAdmin, err := g.IsSuperAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return g.deny(caller, "super admin required")
	}
	return nil
}

// RequireShopOwner verifies that the caller is the owner bound to shopID and
// that the shop is currently usable. Super-admins are denied here: they have
// no inventory visibility. Returns the shop on success.
func (g *Guard) RequireShopOwner(ctx context.Context, caller domain.Principal, shopID int64) (*domain.Shop, error) {
	profile, err := g.profiles.GetProfile(ctx, caller)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, g.deny(caller, "no profile")
	}
	if err != nil {
		return nil, err
	}
	if profile.IsSuperAdmin {
		return nil, g.deny(caller, "super admin has no inventory access")
	}
	if profile.ShopID == nil || *profile.ShopID != shopID {
		return nil, g.deny(caller, "shop not bound to caller")
	}

	shop, err := g.shops.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop.IsSuspended {
		return nil, domain.ErrShopSuspended
	}
	if !shop.IsActive {
		return nil, domain.ErrShopInactive
	}
	return shop, nil
}

// ResetSuperAdmin is the single privilege-escalation path: it grants the
// super-admin flag to the caller only while no profile carries it. The
// check-and-set happens inside the store in one indivisible operation, so of
// two concurrent bootstrap calls exactly one succeeds and a repeat call is a
// no-op failure.
func (g *Guard) ResetSuperAdmin(ctx context.Context, caller domain.Principal) error {
	if err := g.profiles.ClaimSuperAdmin(ctx, caller); err != nil {
		return err
	}
	g.logger.Info("super admin claimed", "principal", caller)
	return nil
}

// AssignUserRole grants or revokes roles; super-admin only. Granting
// RoleAdmin fails with ErrSuperAdminExists while another super-admin exists.
func (g *Guard) AssignUserRole(ctx context.Context, caller, target domain.Principal, role domain.Role) error {
	if err := g.RequireSuperAdmin(ctx, caller); err != nil {
		return err
	}
	switch role {
	case domain.RoleAdmin:
		return g.profiles.SetSuperAdmin(ctx, target, true)
	case domain.RoleUser, domain.RoleGuest:
		return g.profiles.SetSuperAdmin(ctx, target, false)
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
}

// AssignUserToShop binds or unbinds a principal to a shop; super-admin only.
func (g *Guard) AssignUserToShop(ctx context.Context, caller, target domain.Principal, shopID *int64) error {
	if err := g.RequireSuperAdmin(ctx, caller); err != nil {
		return err
	}
	if shopID != nil {
		if _, err := g.shops.GetShop(ctx, *shopID); err != nil {
			return err
		}
	}
	return g.profiles.BindShop(ctx, target, shopID)
}

// GetCallerProfile returns the caller's own profile, or ErrNotFound before
// the first save.
func (g *Guard) GetCallerProfile(ctx context.Context, caller domain.Principal) (*domain.UserProfile, error) {
	return g.profiles.GetProfile(ctx, caller)
}

// GetProfile returns another principal's profile; callers may read their own,
// the super-admin may read any.
func (g *Guard) GetProfile(ctx context.Context, caller, target domain.Principal) (*domain.UserProfile, error) {
	if caller != target {
		if err := g.RequireSuperAdmin(ctx, caller); err != nil {
			return nil, err
		}
	}
	return g.profiles.GetProfile(ctx, target)
}

// SaveCallerProfile upserts the caller's display name and email. The shop
// binding and super-admin flag in the submitted profile are ignored: those
// change only through their dedicated guarded paths.
func (g *Guard) SaveCallerProfile(ctx context.Context, caller domain.Principal, profile *domain.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is required", domain.ErrInvalidInput)
	}
	saved := &domain.UserProfile{
		Principal: caller,
		Name:      profile.Name,
		Email:     profile.Email,
	}
	return g.profiles.SaveProfile(ctx, saved)
}

func (g *Guard) deny(caller domain.Principal, reason string) error {
	if g.metrics != nil {
		g.metrics.AuthDenials.Inc()
	}
	g.logger.Warn("authorization denied", "principal", caller, "reason", reason)
	return domain.ErrUnauthorized
}
