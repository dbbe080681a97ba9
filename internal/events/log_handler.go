package events

import (
	"context"

	"go.uber.org/zap"
)

// LogHandler writes every received event to a logger.
type LogHandler struct {
	Logger *zap.Logger
}

func (h LogHandler) HandleTransactionRecorded(_ context.Context, e TransactionRecordedEvent) error {
	h.Logger.Info("transaction recorded",
		zap.String("event_id", e.EventID),
		zap.String("owner", e.OwnerType+":"+e.OwnerNumber),
		zap.String("kind", e.Kind),
		zap.String("amount", e.Amount.Value),
		zap.String("balance_after", e.BalanceAfter.Value),
		zap.String("description", e.Description))
	return nil
}

func (h LogHandler) HandleCarrierPaymentInitiated(_ context.Context, e CarrierPaymentInitiatedEvent) error {
	h.Logger.Info("carrier payment initiated",
		zap.String("event_id", e.EventID),
		zap.String("transaction_id", e.TransactionID),
		zap.String("phone", e.PhoneNumber),
		zap.String("amount", e.Amount.Value),
		zap.String("status", e.Status))
	return nil
}
