package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/caffeinepub/rk-solutions/internal/adapter/metrics"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// AlertScanner watches product stock levels across all usable shops and
// publishes an alert when a product's derived status transitions into
// lowStock or outOfStock. Status stays a pure read-side projection; the
// scanner only remembers the last level it saw per product so it alerts on
// transitions, not on every scan.
type AlertScanner struct {
	shops    domain.ShopRepository
	products domain.ProductRepository
	notifier domain.Notifier
	logger   *slog.Logger
	metrics  *metrics.LedgerMetrics

	mu        sync.Mutex
	lastLevel map[int64]domain.StockLevel
}

// NewAlertScanner creates a new alert scanner. Metrics may be nil.
func NewAlertScanner(shops domain.ShopRepository, products domain.ProductRepository, notifier domain.Notifier, logger *slog.Logger, m *metrics.LedgerMetrics) *AlertScanner {
	return &AlertScanner{
		shops:     shops,
		products:  products,
		notifier:  notifier,
		logger:    logger.With("component", "alert_scanner"),
		metrics:   m,
		lastLevel: make(map[int64]domain.StockLevel),
	}
}

// Run scans on the given interval until the context is cancelled.
func (s *AlertScanner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("alert scanner started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alert scanner stopped")
			return
		case <-ticker.C:
			if err := s.ScanOnce(ctx); err != nil {
				s.logger.Error("alert scan failed", "error", err)
			}
		}
	}
}

// ScanOnce performs one pass over all usable shops.
func (s *AlertScanner) ScanOnce(ctx context.Context) error {
	shops, err := s.shops.ListShops(ctx)
	if err != nil {
		return err
	}

	seen := make(map[int64]bool)
	for _, shop := range shops {
		if !shop.Usable() {
			continue
		}
		products, err := s.products.ListProducts(ctx, shop.ID)
		if err != nil {
			return err
		}
		for _, p := range products {
			seen[p.ID] = true
			s.observe(ctx, &p)
		}
	}

	// Forget products that no longer exist so their ids can't pin memory.
	s.mu.Lock()
	for id := range s.lastLevel {
		if !seen[id] {
			delete(s.lastLevel, id)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *AlertScanner) observe(ctx context.Context, p *domain.Product) {
	status := p.Status()

	s.mu.Lock()
	previous, known := s.lastLevel[p.ID]
	s.lastLevel[p.ID] = status.Level
	s.mu.Unlock()

	if status.Level == domain.StockLevelIn {
		return
	}
	if known && previous == status.Level {
		return
	}

	alert := domain.StockAlert{
		ShopID:    p.ShopID,
		ProductID: p.ID,
		Name:      p.Name,
		Status:    status,
		At:        time.Now().UTC(),
	}
	if err := s.notifier.Publish(ctx, alert); err != nil {
		s.logger.Error("failed to publish stock alert", "product_id", p.ID, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.AlertsPublished.Inc()
	}
}
