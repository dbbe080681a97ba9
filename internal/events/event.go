package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

const (
	// EventTypeTransactionRecorded is emitted after a ledger entity applies a transaction
	EventTypeTransactionRecorded = "ledger.transaction.recorded"

	// EventTypeCarrierPaymentInitiated is emitted after the carrier accepts a payment
	EventTypeCarrierPaymentInitiated = "carrier.payment.initiated"
)

// Amount is the wire form of a monetary value.
type Amount struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currencyCode"`
}

// Envelope carries the fields common to every event; consumers decode it first.
type Envelope struct {
	EventID        string `json:"eventId"`
	EventType      string `json:"eventType"`
	EventTimestamp string `json:"eventTimestamp"`
}

// TransactionRecordedEvent represents the payload when a ledger transaction is applied.
type TransactionRecordedEvent struct {
	Envelope
	OwnerType     string `json:"ownerType"`
	OwnerNumber   string `json:"ownerNumber"`
	TransactionID string `json:"transactionId"`
	Kind          string `json:"kind"`
	Amount        Amount `json:"amount"`
	BalanceAfter  Amount `json:"balanceAfter"`
	Description   string `json:"description"`
	Timestamp     string `json:"timestamp"`
}

// CarrierPaymentInitiatedEvent represents the payload when a carrier payment is accepted.
type CarrierPaymentInitiatedEvent struct {
	Envelope
	TransactionID string `json:"transactionId"`
	PhoneNumber   string `json:"phoneNumber"` // masked to the last four digits
	PaymentMethod string `json:"paymentMethod"`
	Amount        Amount `json:"amount"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

func newEnvelope(eventType string) Envelope {
	return Envelope{
		EventID:        uuid.New().String(),
		EventType:      eventType,
		EventTimestamp: formatTimestamp(time.Now()),
	}
}

// NewTransactionRecordedEvent builds the event for tx.
func NewTransactionRecordedEvent(owner domain.LedgerOwner, ownerNumber string, tx domain.Transaction) TransactionRecordedEvent {
	return TransactionRecordedEvent{
		Envelope:      newEnvelope(EventTypeTransactionRecorded),
		OwnerType:     string(owner),
		OwnerNumber:   ownerNumber,
		TransactionID: tx.ID.String(),
		Kind:          string(tx.Kind),
		Amount:        amountOf(domain.NewAmount(tx.Amount)),
		BalanceAfter:  amountOf(domain.NewAmount(tx.BalanceAfter)),
		Description:   tx.Description,
		Timestamp:     formatTimestamp(tx.Timestamp),
	}
}

// NewCarrierPaymentInitiatedEvent builds the event for an accepted carrier payment.
func NewCarrierPaymentInitiatedEvent(phone string, outcome carrier.PaymentOutcome) CarrierPaymentInitiatedEvent {
	return CarrierPaymentInitiatedEvent{
		Envelope:      newEnvelope(EventTypeCarrierPaymentInitiated),
		TransactionID: outcome.TransactionID.String(),
		PhoneNumber:   carrier.MaskNumber(phone),
		PaymentMethod: outcome.PaymentMethod,
		Amount:        amountOf(domain.NewAmount(outcome.Amount)),
		Status:        string(outcome.Status),
		Message:       outcome.Message,
	}
}

func amountOf(a domain.Amount) Amount {
	return Amount{Value: a.Value, CurrencyCode: a.CurrencyCode}
}

// formatTimestamp formats a time.Time to ISO 8601 format.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
