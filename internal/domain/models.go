package domain

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultDepositDescription    = "Deposit"
	DefaultWithdrawalDescription = "Withdrawal"
	DefaultMerchant              = "Unknown Merchant"
	DefaultPaymentMethod         = "Bank Transfer"
)

// DefaultCreditLimit is used when a card is opened without an explicit limit.
var DefaultCreditLimit = decimal.NewFromInt(1000)

// TransactionKind represents the kind of balance-affecting operation.
type TransactionKind string

const (
	// TransactionDeposit is money paid into an account
	TransactionDeposit TransactionKind = "DEPOSIT"

	// TransactionWithdrawal is money taken out of an account
	TransactionWithdrawal TransactionKind = "WITHDRAWAL"

	// TransactionCharge is a purchase put on a credit card
	TransactionCharge TransactionKind = "CHARGE"

	// TransactionPayment is a repayment of a card's outstanding balance
	TransactionPayment TransactionKind = "PAYMENT"
)

// Transaction is an immutable record of one balance-affecting operation.
type Transaction struct {
	ID           uuid.UUID       // Unique identifier of the transaction
	Kind         TransactionKind // Operation kind
	Amount       decimal.Decimal // Signed amount: positive for inflow, negative for outflow
	Description  string          // Free text
	Timestamp    time.Time       // When the transaction was applied
	BalanceAfter decimal.Decimal // Balance of the owning entity after application
}

func newTransaction(kind TransactionKind, amount decimal.Decimal, description string, balanceAfter decimal.Decimal) Transaction {
	return Transaction{
		ID:           uuid.New(),
		Kind:         kind,
		Amount:       amount,
		Description:  description,
		Timestamp:    time.Now(),
		BalanceAfter: balanceAfter,
	}
}

// BankAccount holds a balance and its append-only transaction history.
// All mutations are serialized by the account's own lock.
type BankAccount struct {
	mu             sync.Mutex
	number         string
	holder         string
	openingBalance decimal.Decimal
	balance        decimal.Decimal
	transactions   []Transaction
	createdAt      time.Time
}

// NewBankAccount opens an account. The opening balance is not recorded as a transaction.
func NewBankAccount(number, holder string, openingBalance decimal.Decimal) (*BankAccount, error) {
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance must not be negative", ErrInvalidAmount)
	}
	return &BankAccount{
		number:         number,
		holder:         holder,
		openingBalance: openingBalance,
		balance:        openingBalance,
		createdAt:      time.Now(),
	}, nil
}

func (a *BankAccount) Number() string { return a.number }
func (a *BankAccount) Holder() string { return a.holder }
func (a *BankAccount) CreatedAt() time.Time { return a.createdAt }
func (a *BankAccount) OpeningBalance() decimal.Decimal { return a.openingBalance }

// Balance returns the current balance.
func (a *BankAccount) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Deposit increases the balance and appends a DEPOSIT transaction.
func (a *BankAccount) Deposit(amount decimal.Decimal, description string) (Transaction, error) {
	if err := RequirePositive(amount); err != nil {
		return Transaction{}, err
	}
	if description == "" {
		description = DefaultDepositDescription
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.balance = a.balance.Add(amount)
	tx := newTransaction(TransactionDeposit, amount, description, a.balance)
	a.transactions = append(a.transactions, tx)
	return tx, nil
}

// Withdraw decreases the balance and appends a WITHDRAWAL transaction.
// The balance never goes negative.
func (a *BankAccount) Withdraw(amount decimal.Decimal, description string) (Transaction, error) {
	if err := RequirePositive(amount); err != nil {
		return Transaction{}, err
	}
	if description == "" {
		description = DefaultWithdrawalDescription
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.GreaterThan(a.balance) {
		return Transaction{}, fmt.Errorf("%w: requested %s, balance %s",
			ErrInsufficientFunds, FormatAmount(amount), FormatAmount(a.balance))
	}

	a.balance = a.balance.Sub(amount)
	tx := newTransaction(TransactionWithdrawal, amount.Neg(), description, a.balance)
	a.transactions = append(a.transactions, tx)
	return tx, nil
}

// TransactionHistory returns a copy of the transactions in chronological order.
func (a *BankAccount) TransactionHistory() []Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.transactions)
}

// CreditCard holds an outstanding balance bounded by a fixed credit limit.
type CreditCard struct {
	mu           sync.Mutex
	number       string
	holder       string
	creditLimit  decimal.Decimal
	balance      decimal.Decimal
	transactions []Transaction
	createdAt    time.Time
}

// NewCreditCard opens a card with a zero outstanding balance.
func NewCreditCard(number, holder string, creditLimit decimal.Decimal) (*CreditCard, error) {
	if creditLimit.IsNegative() {
		return nil, fmt.Errorf("%w: credit limit must not be negative", ErrInvalidAmount)
	}
	return &CreditCard{
		number:      number,
		holder:      holder,
		creditLimit: creditLimit,
		createdAt:   time.Now(),
	}, nil
}

func (c *CreditCard) Number() string { return c.number }
func (c *CreditCard) Holder() string { return c.holder }
func (c *CreditCard) CreditLimit() decimal.Decimal { return c.creditLimit }
func (c *CreditCard) CreatedAt() time.Time { return c.createdAt }

// Balance returns the outstanding balance owed on the card.
func (c *CreditCard) Balance() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

// AvailableCredit returns the credit limit minus the outstanding balance.
func (c *CreditCard) AvailableCredit() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creditLimit.Sub(c.balance)
}

// Charge adds a purchase to the outstanding balance.
// A charge that would exceed the credit limit is rejected without side effects.
func (c *CreditCard) Charge(amount decimal.Decimal, merchant string) (Transaction, error) {
	if err := RequirePositive(amount); err != nil {
		return Transaction{}, err
	}
	if merchant == "" {
		merchant = DefaultMerchant
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.balance.Add(amount).GreaterThan(c.creditLimit) {
		return Transaction{}, fmt.Errorf("%w: requested %s, available %s",
			ErrOverCreditLimit, FormatAmount(amount), FormatAmount(c.creditLimit.Sub(c.balance)))
	}

	c.balance = c.balance.Add(amount)
	tx := newTransaction(TransactionCharge, amount, "Purchase at "+merchant, c.balance)
	c.transactions = append(c.transactions, tx)
	return tx, nil
}

// Payment reduces the outstanding balance.
func (c *CreditCard) Payment(amount decimal.Decimal, method string) (Transaction, error) {
	if err := RequirePositive(amount); err != nil {
		return Transaction{}, err
	}
	if method == "" {
		method = DefaultPaymentMethod
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if amount.GreaterThan(c.balance) {
		return Transaction{}, fmt.Errorf("%w: requested %s, outstanding %s",
			ErrPaymentExceedsBalance, FormatAmount(amount), FormatAmount(c.balance))
	}

	c.balance = c.balance.Sub(amount)
	tx := newTransaction(TransactionPayment, amount.Neg(), "Payment via "+method, c.balance)
	c.transactions = append(c.transactions, tx)
	return tx, nil
}

// TransactionHistory returns a copy of the transactions in chronological order.
func (c *CreditCard) TransactionHistory() []Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.transactions)
}
