package infra

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// LogNotifier reports bid outcomes as structured log events. It is the
// default side-effect sink; richer surfaces (toasts, the live view hub) wrap
// or replace it without the engine noticing.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing through the given logger, or the
// default logger when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) BidAccepted(listingID string, amount decimal.Decimal) {
	n.logger.Info("Bid placed successfully",
		slog.String("listing", listingID),
		slog.String("amount", amount.String()))
}

func (n *LogNotifier) BidRejected(listingID string, reason error) {
	n.logger.Warn("Bid rejected",
		slog.String("listing", listingID),
		slog.Any("reason", reason))
}

func (n *LogNotifier) Outbid(listingID string) {
	n.logger.Info("You have been outbid",
		slog.String("listing", listingID))
}
