package carrier_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

type publishedPayment struct {
	phone   string
	outcome carrier.PaymentOutcome
}

// mockPaymentPublisher captures published payments on a channel
type mockPaymentPublisher struct {
	payments chan publishedPayment
}

func (m *mockPaymentPublisher) PublishCarrierPayment(ctx context.Context, phone string, outcome carrier.PaymentOutcome) error {
	m.payments <- publishedPayment{phone: phone, outcome: outcome}
	return nil
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProcessPayment_WithinLimit(t *testing.T) {
	quoter := newFixedQuoter("50")
	processor, _ := newProcessor(&scriptedProvider{})
	gateway := carrier.NewGateway(quoter, processor, nil, nil)

	outcome, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount("15.99"), "Coffee")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, carrier.StatusPending, outcome.Status)
	assert.Equal(t, "carrier billing", outcome.PaymentMethod)
	assert.Equal(t, "15.99", domain.FormatAmount(outcome.Amount))
	assert.NotEqual(t, uuid.Nil, outcome.TransactionID)
	assert.Equal(t, "Payment initiated via carrier billing", outcome.Message)
	assert.Equal(t, domain.KindUnknown, outcome.ErrorKind)
}

func TestProcessPayment_OverLimitNeverReachesProcessor(t *testing.T) {
	tests := []struct {
		name   string
		limit  string
		amount string
	}{
		{name: "over 50 tier", limit: "50", amount: "75.00"},
		{name: "over 10 tier", limit: "10", amount: "10.01"},
		{name: "over 25 tier", limit: "25", amount: "45.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initiator := &countingInitiator{}
			gateway := carrier.NewGateway(newFixedQuoter(tt.limit), initiator, nil, nil)

			outcome, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount(tt.amount), "x")
			assert.ErrorIs(t, err, domain.ErrLimitExceeded)
			assert.Contains(t, err.Error(), "daily carrier billing limit of $"+domain.FormatAmount(amount(tt.limit)))
			assert.False(t, outcome.Success)
			assert.Equal(t, uuid.Nil, outcome.TransactionID)
			assert.Equal(t, domain.KindLimitExceeded, outcome.ErrorKind)
			assert.Zero(t, initiator.callCount())
		})
	}
}

func TestProcessPayment_AtLimitIsAllowed(t *testing.T) {
	initiator := &countingInitiator{}
	gateway := carrier.NewGateway(newFixedQuoter("10"), initiator, nil, nil)

	outcome, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount("10.00"), "x")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, initiator.callCount())
}

func TestProcessPayment_IneligibleNumberShortCircuits(t *testing.T) {
	initiator := &countingInitiator{}
	quoter := newFixedQuoter("50")
	gateway := carrier.NewGateway(quoter, initiator, nil, nil)

	outcome, err := gateway.ProcessPayment(context.Background(), "555-123-4567", amount("10.00"), "x")
	assert.ErrorIs(t, err, domain.ErrIneligibleNumber)
	assert.Equal(t, domain.KindIneligibleNumber, outcome.ErrorKind)
	assert.Equal(t, carrier.StatusFailed, outcome.Status)
	assert.Equal(t, int32(1), quoter.calls.Load())
	assert.Zero(t, initiator.callCount())
}

func TestProcessPayment_NegativeAmount(t *testing.T) {
	initiator := &countingInitiator{}
	gateway := carrier.NewGateway(newFixedQuoter("50"), initiator, nil, nil)

	_, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount("-5"), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Zero(t, initiator.callCount())
}

func TestProcessPayment_ProviderUnavailableSurfacesID(t *testing.T) {
	processor, _ := newProcessor(&scriptedProvider{initiateErrs: []error{domain.ErrProviderUnavailable}})
	gateway := carrier.NewGateway(newFixedQuoter("50"), processor, nil, nil)

	outcome, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount("20"), "x")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.False(t, outcome.Success)
	assert.NotEqual(t, uuid.Nil, outcome.TransactionID)
	assert.Equal(t, domain.KindProviderUnavailable, outcome.ErrorKind)

	rec, err := gateway.VerifyPayment(context.Background(), outcome.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, carrier.StatusFailed, rec.Status)
}

func TestVerifyPayment_Delegates(t *testing.T) {
	id := uuid.New()
	initiator := &countingInitiator{status: carrier.StatusRecord{TransactionID: id, Status: carrier.StatusConfirmed}}
	gateway := carrier.NewGateway(newFixedQuoter("50"), initiator, nil, nil)

	rec, err := gateway.VerifyPayment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, carrier.StatusConfirmed, rec.Status)

	_, err = gateway.VerifyPayment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestProcessPayment_PublishesAcceptedPayments(t *testing.T) {
	publisher := &mockPaymentPublisher{payments: make(chan publishedPayment, 4)}
	processor, _ := newProcessor(&scriptedProvider{})
	gateway := carrier.NewGateway(newFixedQuoter("50"), processor, publisher, nil)

	outcome, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount("15.99"), "Coffee")
	require.NoError(t, err)

	select {
	case got := <-publisher.payments:
		assert.Equal(t, "505-123-4567", got.phone)
		assert.Equal(t, outcome.TransactionID, got.outcome.TransactionID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for payment event")
	}

	_, err = gateway.ProcessPayment(context.Background(), "505-123-4567", amount("75"), "x")
	require.Error(t, err)
	select {
	case got := <-publisher.payments:
		t.Fatalf("rejected payment was published: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestProcessPayment_ConcurrentCallsGetDistinctIDs(t *testing.T) {
	processor, statuses := newProcessor(&scriptedProvider{})
	gateway := carrier.NewGateway(newFixedQuoter("50"), processor, nil, nil)

	const n = 32
	ids := make(chan uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := gateway.ProcessPayment(context.Background(), "505-123-4567", amount("1.00"), "x")
			if err == nil {
				ids <- outcome.TransactionID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, statuses.Len())
}

func TestGateway_Telemetry(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	processor, _ := newProcessor(&scriptedProvider{})
	gateway := carrier.NewGateway(newFixedQuoter("50"), processor, nil, nil,
		carrier.WithMeterProvider(mp), carrier.WithTracerProvider(tp))

	_, err := gateway.ProcessPayment(ctx, "505-123-4567", amount("15.99"), "Coffee")
	require.NoError(t, err)
	_, err = gateway.ProcessPayment(ctx, "505-123-4567", amount("75"), "x")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "carrier.payments" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"accepted": 1, "limit_exceeded": 1}, counts)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "carrier.ProcessPayment", spans[0].Name())
	assert.Equal(t, otelcodes.Unset, spans[0].Status().Code)
	assert.Equal(t, otelcodes.Error, spans[1].Status().Code)
}
