package domain

import "context"

// AccountRepository defines the interface for account data access operations.
// Balances live on the entity itself, so repositories only register and look up.
type AccountRepository interface {
	// Create registers a new account.
	// Returns ErrDuplicateKey if the account number is already taken.
	Create(ctx context.Context, account *BankAccount) error

	// GetByNumber retrieves an account by its number.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetByNumber(ctx context.Context, number string) (*BankAccount, error)

	// List returns all accounts ordered by account number.
	List(ctx context.Context) ([]*BankAccount, error)
}

// CreditCardRepository defines the interface for credit card data access operations.
type CreditCardRepository interface {
	// Create registers a new card.
	// Returns ErrDuplicateKey if the card number is already taken.
	Create(ctx context.Context, card *CreditCard) error

	// GetByNumber retrieves a card by its number.
	// Returns ErrCardNotFound if the card doesn't exist.
	GetByNumber(ctx context.Context, number string) (*CreditCard, error)

	// List returns all cards ordered by card number.
	List(ctx context.Context) ([]*CreditCard, error)
}
