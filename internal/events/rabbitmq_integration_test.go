package events_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/events"
)

type channelHandler struct {
	transactions chan events.TransactionRecordedEvent
	payments     chan events.CarrierPaymentInitiatedEvent
}

func (h *channelHandler) HandleTransactionRecorded(_ context.Context, e events.TransactionRecordedEvent) error {
	h.transactions <- e
	return nil
}

func (h *channelHandler) HandleCarrierPaymentInitiated(_ context.Context, e events.CarrierPaymentInitiatedEvent) error {
	h.payments <- e
	return nil
}

// TestPublishConsumeIntegration publishes both event types through a real broker
// and checks they come back out of a bound queue.
func TestPublishConsumeIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	rabbitContainer, rabbitURL := startRabbitMQContainer(t, ctx)
	defer func() {
		if err := rabbitContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	}()

	const exchange = "daddybank.events"

	handler := &channelHandler{
		transactions: make(chan events.TransactionRecordedEvent, 1),
		payments:     make(chan events.CarrierPaymentInitiatedEvent, 1),
	}
	consumer, err := events.NewConsumer(events.ConsumerConfig{
		URL:        rabbitURL,
		Exchange:   exchange,
		RoutingKey: "#",
	}, handler, logger)
	require.NoError(t, err)
	defer consumer.Close()

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		if err := consumer.Start(consumeCtx); err != nil {
			t.Logf("consumer stopped: %v", err)
		}
	}()

	publisher, err := events.NewRabbitMQPublisher(rabbitURL, exchange, logger)
	require.NoError(t, err)
	defer publisher.Close()

	tx := domain.Transaction{
		ID:           uuid.New(),
		Kind:         domain.TransactionDeposit,
		Amount:       decimal.RequireFromString("50"),
		Description:  "Salary",
		Timestamp:    time.Now(),
		BalanceAfter: decimal.RequireFromString("150"),
	}
	require.NoError(t, publisher.PublishTransactionRecorded(ctx, domain.LedgerOwnerAccount, "12345", tx))

	outcome := carrier.PaymentOutcome{
		Success:       true,
		TransactionID: uuid.New(),
		PaymentMethod: carrier.PaymentMethodCarrierBilling,
		Amount:        decimal.RequireFromString("9.99"),
		Status:        carrier.StatusPending,
	}
	require.NoError(t, publisher.PublishCarrierPayment(ctx, "5551234567", outcome))

	select {
	case e := <-handler.transactions:
		assert.Equal(t, tx.ID.String(), e.TransactionID)
		assert.Equal(t, "DEPOSIT", e.Kind)
		assert.Equal(t, "50.00", e.Amount.Value)
		assert.Equal(t, "150.00", e.BalanceAfter.Value)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for transaction event")
	}

	select {
	case e := <-handler.payments:
		assert.Equal(t, outcome.TransactionID.String(), e.TransactionID)
		assert.Equal(t, "9.99", e.Amount.Value)
		assert.Equal(t, "******4567", e.PhoneNumber)
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for carrier payment event")
	}
}

// startRabbitMQContainer starts a RabbitMQ testcontainer and returns the AMQP URL.
func startRabbitMQContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp", "15672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "guest",
			"RABBITMQ_DEFAULT_PASS": "guest",
		},
		WaitingFor: wait.ForLog("Server startup complete"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start rabbitmq container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get rabbitmq host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5672")
	if err != nil {
		t.Fatalf("failed to get rabbitmq port: %v", err)
	}

	return container, fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}
