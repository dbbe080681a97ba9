package carrier

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// PaymentMethodCarrierBilling labels payments charged to a phone bill.
const PaymentMethodCarrierBilling = "carrier billing"

const (
	initiatedMessage = "Payment initiated via carrier billing"

	outcomeAccepted = "accepted"
)

// LimitQuoter quotes a customer's carrier billing limits.
type LimitQuoter interface {
	GetBillingLimit(ctx context.Context, phone string) (BillingLimitQuote, error)
}

// BillingInitiator starts carrier billing transactions and reports their status.
type BillingInitiator interface {
	Initiate(ctx context.Context, phone string, amount decimal.Decimal, description string) (InitiateResult, error)
	CheckStatus(ctx context.Context, id uuid.UUID) (StatusRecord, error)
}

// PaymentPublisher publishes accepted carrier payments to external systems.
type PaymentPublisher interface {
	PublishCarrierPayment(ctx context.Context, phone string, outcome PaymentOutcome) error
}

// PaymentOutcome is the normalized result of a carrier payment attempt.
type PaymentOutcome struct {
	Success       bool             // Whether the provider accepted the payment
	TransactionID uuid.UUID        // Set whenever a request reached the provider, even on failure
	PaymentMethod string           // Always PaymentMethodCarrierBilling
	Amount        decimal.Decimal  // Requested amount
	Status        Status           // Pending on success, failed otherwise
	Message       string           // Human-readable confirmation or error text
	ErrorKind     domain.ErrorKind // KindUnknown on success
}

// Gateway orchestrates carrier payments: limit check, then initiation.
// It never touches the ledger; crediting an account is the caller's call.
type Gateway struct {
	limits    LimitQuoter
	processor BillingInitiator
	publisher PaymentPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
	metrics   *gatewayMetrics
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*gatewayOptions)

type gatewayOptions struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider records metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) GatewayOption {
	return func(o *gatewayOptions) { o.meterProvider = mp }
}

// WithTracerProvider records spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) GatewayOption {
	return func(o *gatewayOptions) { o.tracerProvider = tp }
}

// NewGateway creates a new Gateway.
// Pass nil for publisher if no events should be emitted.
func NewGateway(limits LimitQuoter, processor BillingInitiator, publisher PaymentPublisher, logger *zap.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := gatewayOptions{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Gateway{
		limits:    limits,
		processor: processor,
		publisher: publisher,
		logger:    logger,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		metrics:   newGatewayMetrics(o.meterProvider, logger),
	}
}

// GetBillingLimit quotes the customer's current limits.
func (g *Gateway) GetBillingLimit(ctx context.Context, phone string) (BillingLimitQuote, error) {
	ctx, span := g.tracer.Start(ctx, "carrier.GetBillingLimit")
	defer span.End()

	quote, err := g.limits.GetBillingLimit(ctx, phone)
	if err != nil {
		g.metrics.recordQuote(ctx, outcomeLabel(err))
		failSpan(span, err)
		return BillingLimitQuote{}, err
	}
	g.metrics.recordQuote(ctx, "ok")
	return quote, nil
}

// ProcessPayment charges amount to the customer's phone bill.
//
// The limit quote comes first and its error is returned as is. An amount above
// the quoted available-today limit is rejected before the processor is called, so
// no transaction id is consumed. Processor errors are returned unchanged.
func (g *Gateway) ProcessPayment(ctx context.Context, phone string, amount decimal.Decimal, description string) (PaymentOutcome, error) {
	ctx, span := g.tracer.Start(ctx, "carrier.ProcessPayment",
		trace.WithAttributes(attribute.String("carrier.amount", domain.FormatAmount(amount))))
	defer span.End()

	outcome := PaymentOutcome{
		PaymentMethod: PaymentMethodCarrierBilling,
		Amount:        amount,
		Status:        StatusFailed,
	}

	quote, err := g.limits.GetBillingLimit(ctx, phone)
	if err != nil {
		g.metrics.recordQuote(ctx, outcomeLabel(err))
		return g.fail(ctx, span, phone, outcome, err)
	}
	g.metrics.recordQuote(ctx, "ok")

	if err := domain.RequirePositive(amount); err != nil {
		return g.fail(ctx, span, phone, outcome, err)
	}

	if amount.GreaterThan(quote.AvailableToday) {
		err := fmt.Errorf("%w: amount exceeds daily carrier billing limit of $%s",
			domain.ErrLimitExceeded, domain.FormatAmount(quote.DailyLimit))
		return g.fail(ctx, span, phone, outcome, err)
	}

	result, err := g.processor.Initiate(ctx, phone, amount, description)
	if err != nil {
		outcome.TransactionID = result.TransactionID
		return g.fail(ctx, span, phone, outcome, err)
	}

	outcome.Success = true
	outcome.TransactionID = result.TransactionID
	outcome.Status = StatusPending
	outcome.Message = initiatedMessage

	span.SetAttributes(attribute.String("carrier.transaction_id", result.TransactionID.String()))
	g.metrics.recordPayment(ctx, outcomeAccepted, amount.InexactFloat64())
	g.logger.Info("carrier payment initiated",
		zap.String("transaction_id", result.TransactionID.String()),
		zap.String("phone", MaskNumber(phone)),
		zap.String("amount", domain.FormatAmount(amount)))

	g.publish(phone, outcome)
	return outcome, nil
}

// VerifyPayment returns the status of a carrier transaction.
func (g *Gateway) VerifyPayment(ctx context.Context, id uuid.UUID) (StatusRecord, error) {
	ctx, span := g.tracer.Start(ctx, "carrier.VerifyPayment",
		trace.WithAttributes(attribute.String("carrier.transaction_id", id.String())))
	defer span.End()

	rec, err := g.processor.CheckStatus(ctx, id)
	if err != nil {
		failSpan(span, err)
		return StatusRecord{}, err
	}
	span.SetAttributes(attribute.String("carrier.status", string(rec.Status)))
	return rec, nil
}

func (g *Gateway) fail(ctx context.Context, span trace.Span, phone string, outcome PaymentOutcome, err error) (PaymentOutcome, error) {
	outcome.Message = err.Error()
	outcome.ErrorKind = domain.KindOf(err)

	failSpan(span, err)
	g.metrics.recordPayment(ctx, outcomeLabel(err), 0)
	g.logger.Info("carrier payment rejected",
		zap.String("phone", MaskNumber(phone)),
		zap.String("amount", domain.FormatAmount(outcome.Amount)),
		zap.Stringer("kind", outcome.ErrorKind),
		zap.Error(err))
	return outcome, err
}

// publish is best-effort; an error never fails the payment. The publisher is
// expected to queue rather than wait on a broker.
func (g *Gateway) publish(phone string, outcome PaymentOutcome) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.PublishCarrierPayment(context.Background(), phone, outcome); err != nil {
		g.logger.Warn("failed to publish carrier payment event",
			zap.String("transaction_id", outcome.TransactionID.String()),
			zap.Error(err))
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func outcomeLabel(err error) string {
	return strings.ToLower(domain.KindOf(err).String())
}
