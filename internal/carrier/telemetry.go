package carrier

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"

type gatewayMetrics struct {
	payments metric.Int64Counter
	quotes   metric.Int64Counter
	amounts  metric.Float64Histogram
}

func newGatewayMetrics(mp metric.MeterProvider, logger *zap.Logger) *gatewayMetrics {
	m, err := buildGatewayMetrics(mp.Meter(instrumentationName))
	if err != nil {
		logger.Warn("carrier metrics disabled", zap.Error(err))
		m, _ = buildGatewayMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func buildGatewayMetrics(meter metric.Meter) (*gatewayMetrics, error) {
	payments, err := meter.Int64Counter("carrier.payments",
		metric.WithDescription("Carrier billing payment attempts by outcome"))
	if err != nil {
		return nil, err
	}
	quotes, err := meter.Int64Counter("carrier.limit_quotes",
		metric.WithDescription("Carrier billing limit quotes by outcome"))
	if err != nil {
		return nil, err
	}
	amounts, err := meter.Float64Histogram("carrier.payment_amount",
		metric.WithDescription("Amounts of accepted carrier billing payments"),
		metric.WithUnit("USD"))
	if err != nil {
		return nil, err
	}
	return &gatewayMetrics{payments: payments, quotes: quotes, amounts: amounts}, nil
}

func (m *gatewayMetrics) recordPayment(ctx context.Context, outcome string, amount float64) {
	m.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == outcomeAccepted {
		m.amounts.Record(ctx, amount)
	}
}

func (m *gatewayMetrics) recordQuote(ctx context.Context, outcome string) {
	m.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
