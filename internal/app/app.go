// Package app builds the object graph shared by the server and the CLI.
package app

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/config"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/events"
	grpcserver "github.com/spbu-ds-practicum-2025/daddy-bank/internal/grpc"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/store"
)

// App holds the wired services.
type App struct {
	Ledger    *domain.LedgerService
	Gateway   *carrier.Gateway
	Bank      *grpcserver.BankServiceServer
	Resilient *carrier.ResilientProvider

	logger    *zap.Logger
	publisher *events.RabbitMQPublisher
	events    *events.OrderedPublisher
}

// Option customizes New.
type Option func(*options)

type options struct {
	provider carrier.ProviderClient
	seed     *uint64
	gateway  []carrier.GatewayOption
}

// WithProvider replaces the simulated carrier provider.
func WithProvider(p carrier.ProviderClient) Option {
	return func(o *options) { o.provider = p }
}

// WithSeed makes tier selection and the simulated provider deterministic.
// Each gets its own source derived from seed; a *rand.Rand is not safe to share.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// source returns a fresh random source for stream, or nil when unseeded.
func (o *options) source(stream uint64) *rand.Rand {
	if o.seed == nil {
		return nil
	}
	return rand.New(rand.NewPCG(*o.seed, stream))
}

// WithGatewayOptions passes telemetry options through to the carrier gateway.
func WithGatewayOptions(opts ...carrier.GatewayOption) Option {
	return func(o *options) { o.gateway = append(o.gateway, opts...) }
}

// New wires every service from cfg. When RabbitMQ is enabled the broker must be
// reachable; otherwise events are not published.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: logger}

	// interfaces stay nil unless a broker is configured
	var (
		ledgerEvents  domain.EventPublisher
		paymentEvents carrier.PaymentPublisher
	)
	if cfg.RabbitMQ.Enabled {
		publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger.Named("events"))
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		a.publisher = publisher
		a.events = events.NewOrderedPublisher(publisher, events.DefaultQueueSize, logger.Named("events"))
		ledgerEvents = a.events
		paymentEvents = a.events
	}

	a.Ledger = domain.NewLedgerService(
		store.NewAccountRepository(),
		store.NewCreditCardRepository(),
		ledgerEvents,
		logger.Named("ledger"),
	)

	carrierLogger := logger.Named("carrier")

	var selector carrier.TierSelector
	if cfg.Carrier.TierSelection == config.TierSelectionHash {
		selector = carrier.HashTierSelector{}
	} else {
		selector = carrier.NewRandomTierSelector(o.source(1))
	}
	eligibility := carrier.NewEligibilityService(carrier.EligibilityConfig{
		Prefixes:   cfg.Carrier.Prefixes,
		LimitTiers: cfg.Carrier.LimitTiers,
		Selector:   selector,
	}, carrierLogger)

	provider := o.provider
	if provider == nil {
		provider = carrier.NewSimulatedProvider(carrier.SimulatedProviderConfig{
			SuccessProbability: cfg.Carrier.SuccessProbability,
			Rand:               o.source(2),
		})
	}
	a.Resilient = carrier.NewResilientProvider(provider, carrier.ResilienceConfig{
		Timeout:         cfg.Carrier.RequestTimeout,
		MaxRetries:      cfg.Carrier.MaxRetries,
		InitialInterval: cfg.Carrier.RetryInitialInterval,
		BreakerFailures: cfg.Carrier.BreakerFailures,
		BreakerTimeout:  cfg.Carrier.BreakerTimeout,
	}, carrierLogger)

	processor := carrier.NewProcessor(eligibility, a.Resilient, carrier.NewStatusStore(), carrier.ProcessorConfig{
		MerchantID: cfg.Carrier.MerchantID,
		MaxAmount:  cfg.Carrier.MaxAmount,
	}, carrierLogger)

	a.Gateway = carrier.NewGateway(eligibility, processor, paymentEvents, carrierLogger, o.gateway...)
	a.Bank = grpcserver.NewBankServiceServer(a.Ledger, a.Gateway)

	logger.Info("services initialized",
		zap.String("merchant_id", cfg.Carrier.MerchantID),
		zap.String("tier_selection", cfg.Carrier.TierSelection),
		zap.Bool("events", cfg.RabbitMQ.Enabled))
	return a, nil
}

// Health reports component states for health endpoints.
func (a *App) Health() map[string]string {
	eventState := "disabled"
	if a.publisher != nil {
		eventState = "enabled"
	}
	return map[string]string{
		"carrier_breaker": a.Resilient.BreakerState().String(),
		"events":          eventState,
	}
}

// Close delivers queued events and releases the broker connection, if any.
func (a *App) Close() error {
	if a.publisher == nil {
		return nil
	}
	a.events.Close()
	return a.publisher.Close()
}
