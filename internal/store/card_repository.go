package store

import (
	"context"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// CreditCardRepository implements domain.CreditCardRepository in memory.
type CreditCardRepository struct {
	cards *registry[*domain.CreditCard]
}

// NewCreditCardRepository creates a new CreditCardRepository.
func NewCreditCardRepository() *CreditCardRepository {
	return &CreditCardRepository{
		cards: newRegistry[*domain.CreditCard](domain.ErrCardNotFound),
	}
}

// Create registers the card under its number.
func (r *CreditCardRepository) Create(ctx context.Context, card *domain.CreditCard) error {
	return r.cards.create(ctx, card.Number(), card)
}

// GetByNumber retrieves a card by its number.
func (r *CreditCardRepository) GetByNumber(ctx context.Context, number string) (*domain.CreditCard, error) {
	return r.cards.get(ctx, number)
}

// List returns all cards ordered by number.
func (r *CreditCardRepository) List(ctx context.Context) ([]*domain.CreditCard, error) {
	return r.cards.list(ctx)
}
