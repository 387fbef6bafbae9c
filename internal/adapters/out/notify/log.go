package notify

import (
	"context"
	"log/slog"

	"github.com/bharathakku/delivery-backend/internal/core/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the log. It is used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", notification.Kind,
		"order_id", notification.OrderID,
		"customer_id", notification.CustomerID,
		"driver_id", notification.DriverID,
		"status", notification.Status,
	)
	return nil
}
