package carrier

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// DefaultPrefixes are the area codes served by the carrier.
var DefaultPrefixes = []string{"505", "506", "508", "509", "878", "879", "280", "281", "282", "283", "284"}

// DefaultLimitTiers are the daily carrier billing limits a customer may be quoted.
var DefaultLimitTiers = []decimal.Decimal{
	decimal.NewFromInt(10),
	decimal.NewFromInt(25),
	decimal.NewFromInt(50),
}

var (
	monthlyMultiplier          = decimal.NewFromInt(10)
	availableMonthlyMultiplier = decimal.NewFromInt(8)
)

const phoneDigits = 10

// BillingLimitQuote is a freshly computed view of a customer's carrier billing limits.
// It is never stored.
type BillingLimitQuote struct {
	PhoneNumber      string
	DailyLimit       decimal.Decimal
	MonthlyLimit     decimal.Decimal
	AvailableToday   decimal.Decimal
	AvailableMonthly decimal.Decimal
}

// TierSelector picks the daily limit for a normalized phone number.
type TierSelector interface {
	SelectTier(normalized string, tiers []decimal.Decimal) decimal.Decimal
}

// TierSelectorFunc adapts a function to TierSelector.
type TierSelectorFunc func(normalized string, tiers []decimal.Decimal) decimal.Decimal

func (f TierSelectorFunc) SelectTier(normalized string, tiers []decimal.Decimal) decimal.Decimal {
	return f(normalized, tiers)
}

// RandomTierSelector draws a tier uniformly on every quote, the way the simulated
// carrier behaves. Two quotes for the same number may differ.
type RandomTierSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomTierSelector uses rng, or the global source when rng is nil.
func NewRandomTierSelector(rng *rand.Rand) *RandomTierSelector {
	return &RandomTierSelector{rng: rng}
}

func (s *RandomTierSelector) SelectTier(_ string, tiers []decimal.Decimal) decimal.Decimal {
	if s.rng == nil {
		return tiers[rand.IntN(len(tiers))]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return tiers[s.rng.IntN(len(tiers))]
}

// HashTierSelector always quotes the same tier for the same number.
type HashTierSelector struct{}

func (HashTierSelector) SelectTier(normalized string, tiers []decimal.Decimal) decimal.Decimal {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalized))
	return tiers[h.Sum32()%uint32(len(tiers))]
}

// EligibilityConfig configures an EligibilityService. Zero fields take defaults.
type EligibilityConfig struct {
	Prefixes   []string
	LimitTiers []decimal.Decimal
	Selector   TierSelector
}

// EligibilityService validates carrier numbers and quotes billing limits.
// It holds no per-customer state.
type EligibilityService struct {
	prefixes map[string]struct{}
	tiers    []decimal.Decimal
	selector TierSelector
	logger   *zap.Logger
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(cfg EligibilityConfig, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefixes := cfg.Prefixes
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	tiers := cfg.LimitTiers
	if len(tiers) == 0 {
		tiers = DefaultLimitTiers
	}
	selector := cfg.Selector
	if selector == nil {
		selector = NewRandomTierSelector(nil)
	}

	set := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		set[p] = struct{}{}
	}

	return &EligibilityService{
		prefixes: set,
		tiers:    append([]decimal.Decimal(nil), tiers...),
		selector: selector,
		logger:   logger,
	}
}

// NormalizeNumber strips every non-digit character.
func NormalizeNumber(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskNumber keeps only the last four digits, for logs.
func MaskNumber(phone string) string {
	n := NormalizeNumber(phone)
	if len(n) <= 4 {
		return strings.Repeat("*", len(n))
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

// VerifyNumber reports whether phone is a 10 digit number with a carrier area code.
func (s *EligibilityService) VerifyNumber(phone string) bool {
	n := NormalizeNumber(phone)
	if len(n) != phoneDigits {
		return false
	}
	_, ok := s.prefixes[n[:3]]
	return ok
}

// GetBillingLimit quotes the customer's limits. Available today is always the full
// daily limit because no spend is tracked between calls.
func (s *EligibilityService) GetBillingLimit(ctx context.Context, phone string) (BillingLimitQuote, error) {
	if err := ctx.Err(); err != nil {
		return BillingLimitQuote{}, err
	}
	if !s.VerifyNumber(phone) {
		return BillingLimitQuote{}, fmt.Errorf("%w: %s", domain.ErrIneligibleNumber, describeNumber(phone))
	}

	daily := s.selector.SelectTier(NormalizeNumber(phone), s.tiers)
	quote := BillingLimitQuote{
		PhoneNumber:      phone,
		DailyLimit:       daily,
		MonthlyLimit:     daily.Mul(monthlyMultiplier),
		AvailableToday:   daily,
		AvailableMonthly: daily.Mul(availableMonthlyMultiplier),
	}

	s.logger.Debug("billing limit quoted",
		zap.String("phone", MaskNumber(phone)),
		zap.String("daily_limit", domain.FormatAmount(daily)))
	return quote, nil
}

func describeNumber(phone string) string {
	n := NormalizeNumber(phone)
	switch {
	case n == "":
		return "no digits in phone number"
	case len(n) != phoneDigits:
		return fmt.Sprintf("expected %d digits, got %d", phoneDigits, len(n))
	default:
		return fmt.Sprintf("area code %s is not served by the carrier", n[:3])
	}
}
