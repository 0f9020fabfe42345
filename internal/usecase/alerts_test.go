package usecase

import (
	"context"
	"testing"

	"github.com/caffeinepub/rk-solutions/internal/adapter/repository/memory"
	"github.com/caffeinepub/rk-solutions/internal/domain"
	"github.com/caffeinepub/rk-solutions/internal/domain/mocks"
)

func TestAlertScanner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	guard := NewGuard(store, store, testLogger(), nil)
	ledger := NewLedger(store, store, guard, testLogger(), nil)
	notifier := &mocks.MockNotifier{}
	scanner := NewAlertScanner(store, store, notifier, testLogger(), nil)

	shop := seedShop(t, store, "owner", "Watched Shop")
	product, err := ledger.CreateProduct(ctx, "owner", shop.ID, "Widget", "", 10, 3)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	scan := func() {
		t.Helper()
		if err := scanner.ScanOnce(ctx); err != nil {
			t.Fatalf("ScanOnce: %v", err)
		}
	}
	move := func(change int64) {
		t.Helper()
		if _, err := ledger.RecordMovement(ctx, "owner", product.ID, change); err != nil {
			t.Fatalf("RecordMovement(%d): %v", change, err)
		}
	}

	t.Run("healthy stock publishes nothing", func(t *testing.T) {
		scan()
		if len(notifier.Alerts) != 0 {
			t.Fatalf("expected no alerts, got %d", len(notifier.Alerts))
		}
	})

	t.Run("transition into low stock publishes once", func(t *testing.T) {
		move(-8) // 10 -> 2, below threshold 3
		scan()
		if len(notifier.Alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(notifier.Alerts))
		}
		alert := notifier.Alerts[0]
		if alert.Status.Level != domain.StockLevelLow || alert.ProductID != product.ID {
			t.Errorf("unexpected alert: %+v", alert)
		}

		// Repeat scans at the same level stay quiet.
		scan()
		scan()
		if len(notifier.Alerts) != 1 {
			t.Errorf("repeated scans re-alerted: %d alerts", len(notifier.Alerts))
		}
	})

	t.Run("transition into out of stock publishes again", func(t *testing.T) {
		move(-2) // 2 -> 0
		scan()
		if len(notifier.Alerts) != 2 {
			t.Fatalf("expected 2 alerts, got %d", len(notifier.Alerts))
		}
		if notifier.Alerts[1].Status.Level != domain.StockLevelOut {
			t.Errorf("expected outOfStock alert, got %+v", notifier.Alerts[1])
		}
	})

	t.Run("recovery then decline alerts anew", func(t *testing.T) {
		move(20) // back to healthy
		scan()
		if len(notifier.Alerts) != 2 {
			t.Fatalf("recovery should not alert, got %d", len(notifier.Alerts))
		}
		move(-18) // healthy -> low again
		scan()
		if len(notifier.Alerts) != 3 {
			t.Errorf("expected a fresh low stock alert, got %d", len(notifier.Alerts))
		}
	})

	t.Run("suspended shops are skipped", func(t *testing.T) {
		if err := store.SetSuspended(ctx, shop.ID, true); err != nil {
			t.Fatalf("SetSuspended: %v", err)
		}
		// Drop to zero behind the ledger's back; a scan of this shop would
		// normally publish an outOfStock transition.
		if _, err := store.Append(ctx, product.ID, -2); err != nil {
			t.Fatalf("Append: %v", err)
		}
		before := len(notifier.Alerts)
		scan()
		if len(notifier.Alerts) != before {
			t.Errorf("suspended shop produced alerts")
		}
	})
}
