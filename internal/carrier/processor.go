package carrier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

const (
	DefaultMerchantID = "daddy_bank_001"

	acceptedMessage = "Carrier billing initiated. Customer will receive SMS confirmation."
)

// DefaultMaxAmount is the carrier's ceiling for a single carrier billing transaction.
var DefaultMaxAmount = decimal.NewFromInt(50)

// NumberVerifier checks carrier eligibility of a phone number.
type NumberVerifier interface {
	VerifyNumber(phone string) bool
}

// ProcessorConfig configures a Processor. Zero fields take defaults.
type ProcessorConfig struct {
	MerchantID string
	MaxAmount  decimal.Decimal
}

// InitiateResult describes an accepted carrier billing initiation.
type InitiateResult struct {
	TransactionID uuid.UUID      // uuid.Nil when no request reached the provider
	Status        Status         // Pending when accepted
	Request       BillingRequest // Snapshot sent to the provider
	Message       string         // Human-readable confirmation
}

// Processor initiates carrier billing transactions and tracks their status.
type Processor struct {
	numbers  NumberVerifier
	provider ProviderClient
	statuses *StatusStore
	cfg      ProcessorConfig
	logger   *zap.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(numbers NumberVerifier, provider ProviderClient, statuses *StatusStore, cfg ProcessorConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if statuses == nil {
		statuses = NewStatusStore()
	}
	if cfg.MerchantID == "" {
		cfg.MerchantID = DefaultMerchantID
	}
	if !cfg.MaxAmount.IsPositive() {
		cfg.MaxAmount = DefaultMaxAmount
	}
	return &Processor{
		numbers:  numbers,
		provider: provider,
		statuses: statuses,
		cfg:      cfg,
		logger:   logger,
	}
}

// Initiate validates the request and submits it to the provider.
//
// The number is checked first, then the amount range (0, MaxAmount]. Only then is a
// transaction id issued. A provider failure still returns that id together with an
// error wrapping domain.ErrProviderUnavailable, and the id is recorded as failed.
func (p *Processor) Initiate(ctx context.Context, phone string, amount decimal.Decimal, description string) (InitiateResult, error) {
	if !p.numbers.VerifyNumber(phone) {
		return InitiateResult{}, domain.ErrIneligibleNumber
	}

	if !amount.IsPositive() || amount.GreaterThan(p.cfg.MaxAmount) || !amount.Equal(amount.Round(2)) {
		return InitiateResult{}, fmt.Errorf("%w: amount must be between $0.01 and $%s for carrier billing",
			domain.ErrInvalidAmount, domain.FormatAmount(p.cfg.MaxAmount))
	}

	req := BillingRequest{
		TransactionID: uuid.New(),
		MerchantID:    p.cfg.MerchantID,
		PhoneNumber:   phone,
		Amount:        amount,
		Currency:      domain.CurrencyUSD,
		Description:   description,
		Timestamp:     time.Now(),
	}
	result := InitiateResult{TransactionID: req.TransactionID, Request: req}

	logger := p.logger.With(
		zap.String("transaction_id", req.TransactionID.String()),
		zap.String("phone", MaskNumber(phone)),
		zap.String("amount", domain.FormatAmount(amount)))

	status, err := p.provider.Initiate(ctx, req)
	if err != nil {
		p.statuses.Record(req.TransactionID, StatusFailed)
		result.Status = StatusFailed
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}
		logger.Warn("carrier billing initiation failed", zap.Error(err))
		return result, err
	}

	rec := p.statuses.Record(req.TransactionID, status)
	result.Status = rec.Status
	result.Message = acceptedMessage
	logger.Info("carrier billing initiated", zap.String("status", string(rec.Status)))
	return result, nil
}

// CheckStatus returns the last known status of id, refreshing it from the provider
// while it is still pending. If the provider can't be reached the last known
// status is returned.
func (p *Processor) CheckStatus(ctx context.Context, id uuid.UUID) (StatusRecord, error) {
	rec, ok := p.statuses.Get(id)
	if !ok {
		return StatusRecord{}, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}
	if rec.Status.Terminal() {
		return rec, nil
	}

	status, err := p.provider.Status(ctx, id)
	if err != nil {
		p.logger.Warn("carrier status refresh failed, returning last known status",
			zap.String("transaction_id", id.String()),
			zap.String("status", string(rec.Status)),
			zap.Error(err))
		return rec, nil
	}
	return p.statuses.Record(id, status), nil
}
