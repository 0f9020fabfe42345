package notifier

import (
	"context"
	"log/slog"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// StdoutNotifier logs stock alerts instead of publishing them. Used when no
// Redis address is configured.
type StdoutNotifier struct {
	logger *slog.Logger
}

// NewStdoutNotifier creates a logging notifier.
func NewStdoutNotifier(logger *slog.Logger) *StdoutNotifier {
	return &StdoutNotifier{logger: logger.With("component", "stdout_notifier")}
}

func (n *StdoutNotifier) Publish(ctx context.Context, alert domain.StockAlert) error {
	n.logger.Info("stock alert",
		"shop_id", alert.ShopID,
		"product_id", alert.ProductID,
		"product", alert.Name,
		"level", alert.Status.Level,
		"quantity", alert.Status.Quantity,
	)
	return nil
}
