package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerOwner tells which kind of ledger entity recorded a transaction.
type LedgerOwner string

const (
	LedgerOwnerAccount LedgerOwner = "ACCOUNT"
	LedgerOwnerCard    LedgerOwner = "CARD"
)

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, owner LedgerOwner, ownerNumber string, tx Transaction) error
}

// LedgerService registers accounts and cards and routes money-moving calls to them.
// Serialization of mutations is the entity's job; the service only resolves keys.
type LedgerService struct {
	accounts AccountRepository
	cards    CreditCardRepository
	// Optional event publisher; nil disables events
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewLedgerService creates a new instance of LedgerService.
// Pass nil for eventPublisher if no events should be emitted.
func NewLedgerService(
	accounts AccountRepository,
	cards CreditCardRepository,
	eventPublisher EventPublisher,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		accounts:       accounts,
		cards:          cards,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// CreateAccount opens an account. Returns ErrDuplicateKey if the number is already registered.
func (s *LedgerService) CreateAccount(ctx context.Context, number, holder string, openingBalance decimal.Decimal) (*BankAccount, error) {
	if err := requireKey("account number", number, "holder", holder); err != nil {
		return nil, err
	}

	account, err := NewBankAccount(number, holder, openingBalance)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", number, err)
	}

	s.logger.Info("account created",
		zap.String("account_number", number),
		zap.String("opening_balance", FormatAmount(openingBalance)))
	return account, nil
}

// CreateCreditCard opens a card. Returns ErrDuplicateKey if the number is already registered.
func (s *LedgerService) CreateCreditCard(ctx context.Context, number, holder string, creditLimit decimal.Decimal) (*CreditCard, error) {
	if err := requireKey("card number", number, "holder", holder); err != nil {
		return nil, err
	}

	card, err := NewCreditCard(number, holder, creditLimit)
	if err != nil {
		return nil, err
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create credit card %s: %w", number, err)
	}

	s.logger.Info("credit card created",
		zap.String("card_number", maskCard(number)),
		zap.String("credit_limit", FormatAmount(creditLimit)))
	return card, nil
}

// GetAccount looks up an account by number.
func (s *LedgerService) GetAccount(ctx context.Context, number string) (*BankAccount, error) {
	account, err := s.accounts.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetCreditCard looks up a card by number.
func (s *LedgerService) GetCreditCard(ctx context.Context, number string) (*CreditCard, error) {
	card, err := s.cards.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit card: %w", err)
	}
	return card, nil
}

// ListAccounts returns every registered account.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]*BankAccount, error) {
	return s.accounts.List(ctx)
}

// ListCreditCards returns every registered card.
func (s *LedgerService) ListCreditCards(ctx context.Context) ([]*CreditCard, error) {
	return s.cards.List(ctx)
}

// Deposit pays amount into the account.
func (s *LedgerService) Deposit(ctx context.Context, number string, amount decimal.Decimal, description string) (Transaction, error) {
	account, err := s.GetAccount(ctx, number)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := account.Deposit(amount, description)
	if err != nil {
		s.logRejected("deposit rejected", zap.String("account_number", number), amount, err)
		return Transaction{}, err
	}

	s.recorded(LedgerOwnerAccount, number, tx)
	return tx, nil
}

// Withdraw takes amount out of the account.
func (s *LedgerService) Withdraw(ctx context.Context, number string, amount decimal.Decimal, description string) (Transaction, error) {
	account, err := s.GetAccount(ctx, number)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := account.Withdraw(amount, description)
	if err != nil {
		s.logRejected("withdrawal rejected", zap.String("account_number", number), amount, err)
		return Transaction{}, err
	}

	s.recorded(LedgerOwnerAccount, number, tx)
	return tx, nil
}

// Charge puts a purchase at merchant on the card.
func (s *LedgerService) Charge(ctx context.Context, number string, amount decimal.Decimal, merchant string) (Transaction, error) {
	card, err := s.GetCreditCard(ctx, number)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := card.Charge(amount, merchant)
	if err != nil {
		s.logRejected("charge rejected", zap.String("card_number", maskCard(number)), amount, err)
		return Transaction{}, err
	}

	s.recorded(LedgerOwnerCard, number, tx)
	return tx, nil
}

// Payment pays down the card's outstanding balance.
func (s *LedgerService) Payment(ctx context.Context, number string, amount decimal.Decimal, method string) (Transaction, error) {
	card, err := s.GetCreditCard(ctx, number)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := card.Payment(amount, method)
	if err != nil {
		s.logRejected("card payment rejected", zap.String("card_number", maskCard(number)), amount, err)
		return Transaction{}, err
	}

	s.recorded(LedgerOwnerCard, number, tx)
	return tx, nil
}

// AccountHistory returns a copy of the account's transactions.
func (s *LedgerService) AccountHistory(ctx context.Context, number string) ([]Transaction, error) {
	account, err := s.GetAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	return account.TransactionHistory(), nil
}

// CardHistory returns a copy of the card's transactions.
func (s *LedgerService) CardHistory(ctx context.Context, number string) ([]Transaction, error) {
	card, err := s.GetCreditCard(ctx, number)
	if err != nil {
		return nil, err
	}
	return card.TransactionHistory(), nil
}

// recorded hands the event to the publisher. A publish error is only logged; the
// transaction stays applied. Publishers are expected to queue, not wait on a broker.
// Sequential calls publish in order; concurrent ones are ordered by balanceAfter.
func (s *LedgerService) recorded(owner LedgerOwner, number string, tx Transaction) {
	s.logger.Debug("transaction recorded",
		zap.String("owner", string(owner)),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.String("amount", FormatAmount(tx.Amount)))

	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.PublishTransactionRecorded(context.Background(), owner, number, tx); err != nil {
		s.logger.Warn("failed to publish transaction recorded event",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
	}
}

func (s *LedgerService) logRejected(msg string, key zap.Field, amount decimal.Decimal, err error) {
	s.logger.Info(msg, key,
		zap.String("amount", amount.String()),
		zap.Stringer("kind", KindOf(err)),
		zap.Error(err))
}

func requireKey(keyName, key, holderName, holder string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, keyName)
	}
	if strings.TrimSpace(holder) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, holderName)
	}
	return nil
}

// maskCard keeps the last four digits of a card number for logs.
func maskCard(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
