package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// Ledger is the subset of domain.LedgerService the server calls.
type Ledger interface {
	CreateAccount(ctx context.Context, number, holder string, openingBalance decimal.Decimal) (*domain.BankAccount, error)
	CreateCreditCard(ctx context.Context, number, holder string, creditLimit decimal.Decimal) (*domain.CreditCard, error)
	GetAccount(ctx context.Context, number string) (*domain.BankAccount, error)
	GetCreditCard(ctx context.Context, number string) (*domain.CreditCard, error)
	Deposit(ctx context.Context, number string, amount decimal.Decimal, description string) (domain.Transaction, error)
	Withdraw(ctx context.Context, number string, amount decimal.Decimal, description string) (domain.Transaction, error)
	Charge(ctx context.Context, number string, amount decimal.Decimal, merchant string) (domain.Transaction, error)
	Payment(ctx context.Context, number string, amount decimal.Decimal, method string) (domain.Transaction, error)
	AccountHistory(ctx context.Context, number string) ([]domain.Transaction, error)
	CardHistory(ctx context.Context, number string) ([]domain.Transaction, error)
}

// CarrierGateway is the subset of carrier.Gateway the server calls.
type CarrierGateway interface {
	GetBillingLimit(ctx context.Context, phone string) (carrier.BillingLimitQuote, error)
	ProcessPayment(ctx context.Context, phone string, amount decimal.Decimal, description string) (carrier.PaymentOutcome, error)
	VerifyPayment(ctx context.Context, id uuid.UUID) (carrier.StatusRecord, error)
}

// BankServiceServer implements the BankService gRPC service.
type BankServiceServer struct {
	ledger  Ledger
	gateway CarrierGateway
}

var _ BankService = (*BankServiceServer)(nil)

// NewBankServiceServer creates a new BankServiceServer.
func NewBankServiceServer(ledger Ledger, gateway CarrierGateway) *BankServiceServer {
	return &BankServiceServer{
		ledger:  ledger,
		gateway: gateway,
	}
}

// NewServer builds a grpc.Server with request logging and panic recovery and
// registers srv on it.
func NewServer(srv BankService, logger *zap.Logger, opts ...gogrpc.ServerOption) *gogrpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]gogrpc.ServerOption{
		gogrpc.ChainUnaryInterceptor(loggingInterceptor(logger), recoveryInterceptor(logger)),
	}, opts...)

	s := gogrpc.NewServer(opts...)
	RegisterBankServiceServer(s, srv)
	return s
}

// CreateAccount opens a bank account. The opening balance defaults to zero.
func (s *BankServiceServer) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*AccountResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	opening := decimal.Zero
	if req.OpeningBalance != nil {
		var err error
		if opening, err = toDecimal(*req.OpeningBalance); err != nil {
			return nil, mapDomainErrorToGRPC(err)
		}
	}

	account, err := s.ledger.CreateAccount(ctx, req.AccountNumber, req.Holder, opening)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return toAccountResponse(account), nil
}

// CreateCreditCard opens a credit card. The limit defaults to 1000.00.
func (s *BankServiceServer) CreateCreditCard(ctx context.Context, req *CreateCreditCardRequest) (*CreditCardResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	limit := domain.DefaultCreditLimit
	if req.CreditLimit != nil {
		var err error
		if limit, err = toDecimal(*req.CreditLimit); err != nil {
			return nil, mapDomainErrorToGRPC(err)
		}
	}

	card, err := s.ledger.CreateCreditCard(ctx, req.CardNumber, req.Holder, limit)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return toCreditCardResponse(card), nil
}

// GetAccount returns the account with its current balance.
func (s *BankServiceServer) GetAccount(ctx context.Context, req *GetAccountRequest) (*AccountResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	account, err := s.ledger.GetAccount(ctx, req.AccountNumber)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return toAccountResponse(account), nil
}

// GetCreditCard returns the card with its balance and available credit.
func (s *BankServiceServer) GetCreditCard(ctx context.Context, req *GetCreditCardRequest) (*CreditCardResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	card, err := s.ledger.GetCreditCard(ctx, req.CardNumber)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return toCreditCardResponse(card), nil
}

// Deposit pays money into an account.
func (s *BankServiceServer) Deposit(ctx context.Context, req *DepositRequest) (*TransactionResponse, error) {
	return s.applyTransaction(ctx, req, req.Amount, func(amount decimal.Decimal) (domain.Transaction, error) {
		return s.ledger.Deposit(ctx, req.AccountNumber, amount, req.Description)
	})
}

// Withdraw takes money out of an account.
func (s *BankServiceServer) Withdraw(ctx context.Context, req *WithdrawRequest) (*TransactionResponse, error) {
	return s.applyTransaction(ctx, req, req.Amount, func(amount decimal.Decimal) (domain.Transaction, error) {
		return s.ledger.Withdraw(ctx, req.AccountNumber, amount, req.Description)
	})
}

// Charge records a purchase on a credit card.
func (s *BankServiceServer) Charge(ctx context.Context, req *ChargeRequest) (*TransactionResponse, error) {
	return s.applyTransaction(ctx, req, req.Amount, func(amount decimal.Decimal) (domain.Transaction, error) {
		return s.ledger.Charge(ctx, req.CardNumber, amount, req.Merchant)
	})
}

// Payment pays down a credit card balance.
func (s *BankServiceServer) Payment(ctx context.Context, req *PaymentRequest) (*TransactionResponse, error) {
	return s.applyTransaction(ctx, req, req.Amount, func(amount decimal.Decimal) (domain.Transaction, error) {
		return s.ledger.Payment(ctx, req.CardNumber, amount, req.Method)
	})
}

func (s *BankServiceServer) applyTransaction(_ context.Context, req any, amount Amount, apply func(decimal.Decimal) (domain.Transaction, error)) (*TransactionResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	value, err := toDecimal(amount)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	tx, err := apply(value)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return &TransactionResponse{Transaction: toTransaction(tx)}, nil
}

// ListTransactions returns the history of one account or one card, oldest first.
func (s *BankServiceServer) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	var (
		history []domain.Transaction
		err     error
	)
	if req.AccountNumber != "" {
		history, err = s.ledger.AccountHistory(ctx, req.AccountNumber)
	} else {
		history, err = s.ledger.CardHistory(ctx, req.CardNumber)
	}
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	resp := &ListTransactionsResponse{Transactions: make([]Transaction, 0, len(history))}
	for _, tx := range history {
		resp.Transactions = append(resp.Transactions, toTransaction(tx))
	}
	return resp, nil
}

// GetBillingLimit quotes the carrier billing limits for a phone number.
func (s *BankServiceServer) GetBillingLimit(ctx context.Context, req *GetBillingLimitRequest) (*BillingLimitResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	quote, err := s.gateway.GetBillingLimit(ctx, req.PhoneNumber)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return &BillingLimitResponse{
		PhoneNumber:      quote.PhoneNumber,
		DailyLimit:       toAmount(quote.DailyLimit),
		MonthlyLimit:     toAmount(quote.MonthlyLimit),
		AvailableToday:   toAmount(quote.AvailableToday),
		AvailableMonthly: toAmount(quote.AvailableMonthly),
	}, nil
}

// ProcessCarrierPayment charges an amount to a phone bill.
// Business rejections come back as Success=false rather than a status error.
func (s *BankServiceServer) ProcessCarrierPayment(ctx context.Context, req *ProcessCarrierPaymentRequest) (*CarrierPaymentResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	amount, err := carrierAmount(req.Amount)
	if err != nil {
		return &CarrierPaymentResponse{
			PaymentMethod: carrier.PaymentMethodCarrierBilling,
			Amount:        Amount{Value: req.Amount.Value, CurrencyCode: domain.CurrencyUSD},
			Status:        string(carrier.StatusFailed),
			Message:       err.Error(),
			ErrorKind:     domain.KindOf(err).String(),
		}, nil
	}

	outcome, err := s.gateway.ProcessPayment(ctx, req.PhoneNumber, amount, req.Description)
	if err != nil && outcome.ErrorKind == domain.KindUnknown {
		return nil, mapDomainErrorToGRPC(err)
	}

	resp := &CarrierPaymentResponse{
		Success:       outcome.Success,
		PaymentMethod: outcome.PaymentMethod,
		Amount:        toAmount(outcome.Amount),
		Status:        string(outcome.Status),
		Message:       outcome.Message,
	}
	if outcome.TransactionID != uuid.Nil {
		resp.TransactionID = outcome.TransactionID.String()
	}
	if !outcome.Success {
		resp.ErrorKind = outcome.ErrorKind.String()
	}
	return resp, nil
}

// VerifyCarrierPayment returns the current status of a carrier transaction.
func (s *BankServiceServer) VerifyCarrierPayment(ctx context.Context, req *VerifyCarrierPaymentRequest) (*CarrierStatusResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	id, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transactionId: %v", err)
	}

	rec, err := s.gateway.VerifyPayment(ctx, id)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}
	return &CarrierStatusResponse{
		TransactionID: rec.TransactionID.String(),
		Status:        string(rec.Status),
		UpdatedAt:     formatTimestamp(rec.UpdatedAt),
	}, nil
}

// mapDomainErrorToGRPC maps domain errors to gRPC status codes.
func mapDomainErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidAmount, domain.KindInvalidRequest, domain.KindIneligibleNumber:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.KindInsufficientFunds, domain.KindOverCreditLimit, domain.KindLimitExceeded:
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.KindDuplicateKey:
		return status.Error(codes.AlreadyExists, err.Error())
	case domain.KindProviderUnavailable:
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func toDecimal(a Amount) (decimal.Decimal, error) {
	return domain.Amount{Value: a.Value, CurrencyCode: a.CurrencyCode}.Decimal()
}

// carrierAmount parses any decimal, including negatives, so the gateway can
// report range errors after the number check.
func carrierAmount(a Amount) (decimal.Decimal, error) {
	if a.CurrencyCode != "" {
		if err := domain.ValidateCurrencyCode(a.CurrencyCode); err != nil {
			return decimal.Zero, err
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(a.Value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, a.Value)
	}
	return d, nil
}

func toAmount(d decimal.Decimal) Amount {
	a := domain.NewAmount(d)
	return Amount{Value: a.Value, CurrencyCode: a.CurrencyCode}
}

func toAccountResponse(a *domain.BankAccount) *AccountResponse {
	return &AccountResponse{
		AccountNumber: a.Number(),
		Holder:        a.Holder(),
		Balance:       toAmount(a.Balance()),
		CreatedAt:     formatTimestamp(a.CreatedAt()),
	}
}

func toCreditCardResponse(c *domain.CreditCard) *CreditCardResponse {
	return &CreditCardResponse{
		CardNumber:      c.Number(),
		Holder:          c.Holder(),
		CreditLimit:     toAmount(c.CreditLimit()),
		Balance:         toAmount(c.Balance()),
		AvailableCredit: toAmount(c.AvailableCredit()),
		CreatedAt:       formatTimestamp(c.CreatedAt()),
	}
}

func toTransaction(tx domain.Transaction) Transaction {
	return Transaction{
		ID:           tx.ID.String(),
		Kind:         string(tx.Kind),
		Amount:       toAmount(tx.Amount),
		Description:  tx.Description,
		Timestamp:    formatTimestamp(tx.Timestamp),
		BalanceAfter: toAmount(tx.BalanceAfter),
	}
}

// formatTimestamp formats a time.Time to ISO 8601 format.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
