package main

import (
	"context"

	grpcserver "github.com/spbu-ds-practicum-2025/daddy-bank/internal/grpc"
)

// remoteBank adapts a BankClient to the BankService interface the CLI drives.
type remoteBank struct {
	client *grpcserver.BankClient
}

var _ grpcserver.BankService = remoteBank{}

func (r remoteBank) CreateAccount(ctx context.Context, req *grpcserver.CreateAccountRequest) (*grpcserver.AccountResponse, error) {
	return r.client.CreateAccount(ctx, req)
}

func (r remoteBank) CreateCreditCard(ctx context.Context, req *grpcserver.CreateCreditCardRequest) (*grpcserver.CreditCardResponse, error) {
	return r.client.CreateCreditCard(ctx, req)
}

func (r remoteBank) GetAccount(ctx context.Context, req *grpcserver.GetAccountRequest) (*grpcserver.AccountResponse, error) {
	return r.client.GetAccount(ctx, req)
}

func (r remoteBank) GetCreditCard(ctx context.Context, req *grpcserver.GetCreditCardRequest) (*grpcserver.CreditCardResponse, error) {
	return r.client.GetCreditCard(ctx, req)
}

func (r remoteBank) Deposit(ctx context.Context, req *grpcserver.DepositRequest) (*grpcserver.TransactionResponse, error) {
	return r.client.Deposit(ctx, req)
}

func (r remoteBank) Withdraw(ctx context.Context, req *grpcserver.WithdrawRequest) (*grpcserver.TransactionResponse, error) {
	return r.client.Withdraw(ctx, req)
}

func (r remoteBank) Charge(ctx context.Context, req *grpcserver.ChargeRequest) (*grpcserver.TransactionResponse, error) {
	return r.client.Charge(ctx, req)
}

func (r remoteBank) Payment(ctx context.Context, req *grpcserver.PaymentRequest) (*grpcserver.TransactionResponse, error) {
	return r.client.Payment(ctx, req)
}

func (r remoteBank) ListTransactions(ctx context.Context, req *grpcserver.ListTransactionsRequest) (*grpcserver.ListTransactionsResponse, error) {
	return r.client.ListTransactions(ctx, req)
}

func (r remoteBank) GetBillingLimit(ctx context.Context, req *grpcserver.GetBillingLimitRequest) (*grpcserver.BillingLimitResponse, error) {
	return r.client.GetBillingLimit(ctx, req)
}

func (r remoteBank) ProcessCarrierPayment(ctx context.Context, req *grpcserver.ProcessCarrierPaymentRequest) (*grpcserver.CarrierPaymentResponse, error) {
	return r.client.ProcessCarrierPayment(ctx, req)
}

func (r remoteBank) VerifyCarrierPayment(ctx context.Context, req *grpcserver.VerifyCarrierPaymentRequest) (*grpcserver.CarrierStatusResponse, error) {
	return r.client.VerifyCarrierPayment(ctx, req)
}
