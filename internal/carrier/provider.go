package carrier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// DefaultSuccessProbability is the share of initiations the simulated carrier accepts.
const DefaultSuccessProbability = 0.9

// BillingRequest is the snapshot sent to the carrier for one initiation.
type BillingRequest struct {
	TransactionID uuid.UUID       // Freshly generated per initiation, reused on retries
	MerchantID    string          // Merchant the charge is billed for
	PhoneNumber   string          // Customer number as entered
	Amount        decimal.Decimal // Amount to put on the phone bill
	Currency      string          // Always USD
	Description   string          // Free text shown to the customer
	Timestamp     time.Time       // When the request was built
}

// ProviderClient is the narrow view of the carrier billing backend.
type ProviderClient interface {
	// Initiate submits req. An accepted request is pending.
	// Submitting the same transaction id again must not charge twice.
	Initiate(ctx context.Context, req BillingRequest) (Status, error)

	// Status returns the provider's current status for id.
	// Returns domain.ErrTransactionNotFound for ids it never accepted.
	Status(ctx context.Context, id uuid.UUID) (Status, error)
}

// SimulatedProviderConfig configures a SimulatedProvider.
type SimulatedProviderConfig struct {
	SuccessProbability float64       // Share of initiations accepted, 0.9 when zero
	Latency            time.Duration // Artificial delay per call
	Rand               *rand.Rand    // Random source, seeded from the clock when nil
}

// SimulatedProvider stands in for the carrier API. It accepts initiations at random,
// settles pending transactions at random on the first status lookup, and then
// keeps reporting the settled status.
type SimulatedProvider struct {
	mu                 sync.Mutex
	successProbability float64
	latency            time.Duration
	rng                *rand.Rand
	accepted           map[uuid.UUID]Status
}

// NewSimulatedProvider creates a new SimulatedProvider.
func NewSimulatedProvider(cfg SimulatedProviderConfig) *SimulatedProvider {
	p := cfg.SuccessProbability
	if p <= 0 {
		p = DefaultSuccessProbability
	}
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &SimulatedProvider{
		successProbability: p,
		latency:            cfg.Latency,
		rng:                rng,
		accepted:           make(map[uuid.UUID]Status),
	}
}

// Initiate accepts req with the configured probability.
func (p *SimulatedProvider) Initiate(ctx context.Context, req BillingRequest) (Status, error) {
	if err := p.wait(ctx); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accepted[req.TransactionID]; ok {
		return StatusPending, nil
	}
	if p.rng.Float64() >= p.successProbability {
		return "", fmt.Errorf("%w: transaction %s", domain.ErrProviderUnavailable, req.TransactionID)
	}
	p.accepted[req.TransactionID] = StatusPending
	return StatusPending, nil
}

// Status reports the status of an accepted transaction.
func (p *SimulatedProvider) Status(ctx context.Context, id uuid.UUID) (Status, error) {
	if err := p.wait(ctx); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.accepted[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}
	if status == StatusPending {
		outcomes := [...]Status{StatusPending, StatusConfirmed, StatusFailed, StatusCancelled}
		status = outcomes[p.rng.IntN(len(outcomes))]
		p.accepted[id] = status
	}
	return status, nil
}

func (p *SimulatedProvider) wait(ctx context.Context) error {
	if p.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
