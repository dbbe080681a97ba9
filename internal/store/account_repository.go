package store

import (
	"context"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// AccountRepository implements domain.AccountRepository in memory.
type AccountRepository struct {
	accounts *registry[*domain.BankAccount]
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: newRegistry[*domain.BankAccount](domain.ErrAccountNotFound),
	}
}

// Create registers the account under its number.
func (r *AccountRepository) Create(ctx context.Context, account *domain.BankAccount) error {
	return r.accounts.create(ctx, account.Number(), account)
}

// GetByNumber retrieves an account by its number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.BankAccount, error) {
	return r.accounts.get(ctx, number)
}

// List returns all accounts ordered by number.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.BankAccount, error) {
	return r.accounts.list(ctx)
}
