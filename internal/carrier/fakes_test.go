package carrier_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// scriptedProvider is a deterministic ProviderClient. Initiate returns the scripted
// errors in order and then accepts; Status returns the scripted status.
type scriptedProvider struct {
	mu           sync.Mutex
	initiateErrs []error
	statusErr    error
	status       carrier.Status
	requests     []carrier.BillingRequest
	statusCalls  int
	block        bool
}

func (p *scriptedProvider) Initiate(ctx context.Context, req carrier.BillingRequest) (carrier.Status, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	block := p.block
	var err error
	if len(p.initiateErrs) > 0 {
		err = p.initiateErrs[0]
		p.initiateErrs = p.initiateErrs[1:]
	}
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return carrier.StatusPending, nil
}

func (p *scriptedProvider) Status(ctx context.Context, id uuid.UUID) (carrier.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusCalls++
	if p.statusErr != nil {
		return "", p.statusErr
	}
	if p.status == "" {
		return carrier.StatusPending, nil
	}
	return p.status, nil
}

func (p *scriptedProvider) initiateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// fixedTier always quotes the given daily limit.
func fixedTier(limit string) carrier.TierSelector {
	d := decimal.RequireFromString(limit)
	return carrier.TierSelectorFunc(func(string, []decimal.Decimal) decimal.Decimal { return d })
}

// fixedQuoter quotes a fixed limit for carrier numbers.
type fixedQuoter struct {
	eligibility *carrier.EligibilityService
	calls       atomic.Int32
}

func newFixedQuoter(limit string) *fixedQuoter {
	return &fixedQuoter{
		eligibility: carrier.NewEligibilityService(carrier.EligibilityConfig{Selector: fixedTier(limit)}, nil),
	}
}

func (q *fixedQuoter) GetBillingLimit(ctx context.Context, phone string) (carrier.BillingLimitQuote, error) {
	q.calls.Add(1)
	return q.eligibility.GetBillingLimit(ctx, phone)
}

// countingInitiator records calls and delegates to a function.
type countingInitiator struct {
	mu       sync.Mutex
	calls    int
	initiate func(phone string, amount decimal.Decimal) (carrier.InitiateResult, error)
	status   carrier.StatusRecord
}

func (c *countingInitiator) Initiate(ctx context.Context, phone string, amount decimal.Decimal, description string) (carrier.InitiateResult, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.initiate != nil {
		return c.initiate(phone, amount)
	}
	return carrier.InitiateResult{TransactionID: uuid.New(), Status: carrier.StatusPending}, nil
}

func (c *countingInitiator) CheckStatus(ctx context.Context, id uuid.UUID) (carrier.StatusRecord, error) {
	if c.status.TransactionID != id {
		return carrier.StatusRecord{}, domain.ErrTransactionNotFound
	}
	return c.status, nil
}

func (c *countingInitiator) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
