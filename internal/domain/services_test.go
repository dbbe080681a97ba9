package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/store"
)

type recordedEvent struct {
	owner  domain.LedgerOwner
	number string
	tx     domain.Transaction
}

// mockEventPublisher captures published events on a channel
type mockEventPublisher struct {
	events chan recordedEvent
	err    error
}

func newMockEventPublisher() *mockEventPublisher {
	return &mockEventPublisher{events: make(chan recordedEvent, 16)}
}

func (m *mockEventPublisher) PublishTransactionRecorded(ctx context.Context, owner domain.LedgerOwner, number string, tx domain.Transaction) error {
	m.events <- recordedEvent{owner: owner, number: number, tx: tx}
	return m.err
}

func newLedger(t *testing.T, publisher domain.EventPublisher, logger *zap.Logger) *domain.LedgerService {
	t.Helper()
	return domain.NewLedgerService(store.NewAccountRepository(), store.NewCreditCardRepository(), publisher, logger)
}

func TestLedgerService_CreateAccountDuplicate(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t, nil, nil)

	_, err := ledger.CreateAccount(ctx, "12345", "John Doe", dec(t, "100"))
	require.NoError(t, err)

	_, err = ledger.CreateAccount(ctx, "12345", "Someone Else", dec(t, "1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.Equal(t, domain.KindDuplicateKey, domain.KindOf(err))

	account, err := ledger.GetAccount(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", account.Holder())
	assert.Equal(t, "100.00", domain.FormatAmount(account.Balance()))
}

func TestLedgerService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t, nil, nil)

	tests := []struct {
		name    string
		create  func() error
		wantErr error
	}{
		{
			name: "missing account number",
			create: func() error {
				_, err := ledger.CreateAccount(ctx, " ", "John Doe", dec(t, "1"))
				return err
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "missing holder",
			create: func() error {
				_, err := ledger.CreateCreditCard(ctx, "4567", "", dec(t, "1"))
				return err
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "negative opening balance",
			create: func() error {
				_, err := ledger.CreateAccount(ctx, "1", "A", dec(t, "-10"))
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative credit limit",
			create: func() error {
				_, err := ledger.CreateCreditCard(ctx, "2", "B", dec(t, "-10"))
				return err
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.create(), tt.wantErr)
		})
	}
}

func TestLedgerService_MoneyMovement(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t, nil, nil)

	_, err := ledger.CreateAccount(ctx, "12345", "John Doe", dec(t, "100"))
	require.NoError(t, err)
	_, err = ledger.CreateCreditCard(ctx, "4567", "John Doe", dec(t, "500"))
	require.NoError(t, err)

	_, err = ledger.Deposit(ctx, "12345", dec(t, "15.99"), "Carrier payment")
	require.NoError(t, err)
	_, err = ledger.Withdraw(ctx, "12345", dec(t, "20"), "")
	require.NoError(t, err)
	_, err = ledger.Withdraw(ctx, "12345", dec(t, "1000"), "")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = ledger.Charge(ctx, "4567", dec(t, "75"), "Grocer")
	require.NoError(t, err)
	_, err = ledger.Payment(ctx, "4567", dec(t, "25"), "Checking")
	require.NoError(t, err)

	history, err := ledger.AccountHistory(ctx, "12345")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "95.99", domain.FormatAmount(history[1].BalanceAfter))

	cardHistory, err := ledger.CardHistory(ctx, "4567")
	require.NoError(t, err)
	require.Len(t, cardHistory, 2)
	assert.Equal(t, "Payment via Checking", cardHistory[1].Description)
	assert.Equal(t, "50.00", domain.FormatAmount(cardHistory[1].BalanceAfter))
}

func TestLedgerService_UnknownKeys(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(t, nil, nil)

	_, err := ledger.Deposit(ctx, "nope", dec(t, "1"), "")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = ledger.Charge(ctx, "nope", dec(t, "1"), "")
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
	_, err = ledger.CardHistory(ctx, "nope")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestLedgerService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	publisher := newMockEventPublisher()
	ledger := newLedger(t, publisher, nil)

	_, err := ledger.CreateAccount(ctx, "12345", "John Doe", dec(t, "0"))
	require.NoError(t, err)
	tx, err := ledger.Deposit(ctx, "12345", dec(t, "10"), "")
	require.NoError(t, err)

	select {
	case ev := <-publisher.events:
		assert.Equal(t, domain.LedgerOwnerAccount, ev.owner)
		assert.Equal(t, "12345", ev.number)
		assert.Equal(t, tx.ID, ev.tx.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	// rejected operations publish nothing
	_, err = ledger.Withdraw(ctx, "12345", dec(t, "11"), "")
	require.Error(t, err)
	select {
	case ev := <-publisher.events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLedgerService_PublishesInOrder(t *testing.T) {
	ctx := context.Background()
	publisher := newMockEventPublisher()
	ledger := newLedger(t, publisher, nil)

	_, err := ledger.CreateAccount(ctx, "12345", "John Doe", dec(t, "0"))
	require.NoError(t, err)

	var want []string
	for _, amount := range []string{"1", "2", "3", "4", "5"} {
		tx, err := ledger.Deposit(ctx, "12345", dec(t, amount), "")
		require.NoError(t, err)
		want = append(want, tx.ID.String())
	}

	var got []string
	for range want {
		got = append(got, (<-publisher.events).tx.ID.String())
	}
	assert.Equal(t, want, got)
}

func TestLedgerService_PublishFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	publisher := newMockEventPublisher()
	publisher.err = errors.New("broker down")
	ledger := newLedger(t, publisher, zap.New(core))

	_, err := ledger.CreateAccount(ctx, "12345", "John Doe", dec(t, "0"))
	require.NoError(t, err)
	_, err = ledger.Deposit(ctx, "12345", dec(t, "10"), "")
	require.NoError(t, err, "publish failures never fail the deposit")

	<-publisher.events
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("failed to publish transaction recorded event").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
