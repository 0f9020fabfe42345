package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/caffeinepub/rk-solutions/internal/adapter/repository/memory"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

func newRegistry(store *memory.Store) *Registry {
	guard := NewGuard(store, store, testLogger(), nil)
	return NewRegistry(store, store, guard, testLogger())
}

func TestCreateAndAssignShop(t *testing.T) {
	ctx := context.Background()

	t.Run("signup creates an active bound shop", func(t *testing.T) {
		store := memory.NewStore()
		registry := newRegistry(store)

		shop, err := registry.CreateAndAssignShop(ctx, "newcomer", "Fresh Shop")
		if err != nil {
			t.Fatalf("CreateAndAssignShop: %v", err)
		}
		if !shop.IsActive || shop.IsSuspended {
			t.Errorf("new shop should be active and unsuspended: %+v", shop)
		}
		if shop.Owner != "newcomer" {
			t.Errorf("owner = %s, want newcomer", shop.Owner)
		}

		profile, err := store.GetProfile(ctx, "newcomer")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if profile.ShopID == nil || *profile.ShopID != shop.ID {
			t.Errorf("caller not bound to new shop: %v", profile.ShopID)
		}
	})

	t.Run("second shop for the same caller is rejected", func(t *testing.T) {
		store := memory.NewStore()
		registry := newRegistry(store)

		if _, err := registry.CreateAndAssignShop(ctx, "owner", "First"); err != nil {
			t.Fatalf("first shop: %v", err)
		}
		if _, err := registry.CreateAndAssignShop(ctx, "owner", "Second"); !errors.Is(err, domain.ErrShopAlreadyOwned) {
			t.Errorf("expected ErrShopAlreadyOwned, got %v", err)
		}
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		store := memory.NewStore()
		registry := newRegistry(store)

		if _, err := registry.CreateAndAssignShop(ctx, "owner", ""); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAdminCreateShop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registry := newRegistry(store)
	seedSuperAdmin(t, store, "platform-op")

	t.Run("super admin creates for a designated owner", func(t *testing.T) {
		shop, err := registry.CreateShop(ctx, "platform-op", "Provisioned Shop", "tenant")
		if err != nil {
			t.Fatalf("CreateShop: %v", err)
		}
		profile, err := store.GetProfile(ctx, "tenant")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if profile.ShopID == nil || *profile.ShopID != shop.ID {
			t.Errorf("owner not bound: %v", profile.ShopID)
		}
	})

	t.Run("regular caller is denied", func(t *testing.T) {
		if _, err := registry.CreateShop(ctx, "tenant", "Sneaky Shop", "tenant"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestShopSuspension(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registry := newRegistry(store)
	seedSuperAdmin(t, store, "platform-op")

	shop, err := registry.CreateShop(ctx, "platform-op", "Managed Shop", "tenant")
	if err != nil {
		t.Fatalf("CreateShop: %v", err)
	}

	t.Run("only the super admin can suspend", func(t *testing.T) {
		if err := registry.SuspendShop(ctx, "tenant", shop.ID); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("suspend and reactivate round trip", func(t *testing.T) {
		if err := registry.SuspendShop(ctx, "platform-op", shop.ID); err != nil {
			t.Fatalf("SuspendShop: %v", err)
		}
		got, err := registry.GetShop(ctx, "platform-op", shop.ID)
		if err != nil {
			t.Fatalf("GetShop: %v", err)
		}
		if !got.IsSuspended {
			t.Error("shop should be suspended")
		}

		if err := registry.ReactivateShop(ctx, "platform-op", shop.ID); err != nil {
			t.Fatalf("ReactivateShop: %v", err)
		}
		got, err = registry.GetShop(ctx, "platform-op", shop.ID)
		if err != nil {
			t.Fatalf("GetShop: %v", err)
		}
		if got.IsSuspended {
			t.Error("shop should be reactivated")
		}
	})

	t.Run("suspending a missing shop fails", func(t *testing.T) {
		if err := registry.SuspendShop(ctx, "platform-op", 999); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGetShops(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	registry := newRegistry(store)
	seedSuperAdmin(t, store, "platform-op")

	shopA, _ := registry.CreateShop(ctx, "platform-op", "Shop A", "alice")
	if _, err := registry.CreateShop(ctx, "platform-op", "Shop B", "bob"); err != nil {
		t.Fatalf("CreateShop: %v", err)
	}

	t.Run("listing is super admin only", func(t *testing.T) {
		shops, err := registry.GetAllShops(ctx, "platform-op")
		if err != nil {
			t.Fatalf("GetAllShops: %v", err)
		}
		if len(shops) != 2 {
			t.Errorf("expected 2 shops, got %d", len(shops))
		}
		if _, err := registry.GetAllShops(ctx, "alice"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("shop metadata readable by owner and admin only", func(t *testing.T) {
		if _, err := registry.GetShop(ctx, "alice", shopA.ID); err != nil {
			t.Errorf("owner read: %v", err)
		}
		if _, err := registry.GetShop(ctx, "platform-op", shopA.ID); err != nil {
			t.Errorf("admin read: %v", err)
		}
		if _, err := registry.GetShop(ctx, "bob", shopA.ID); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for outsider, got %v", err)
		}
	})
}
