package grpc

import (
	"context"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// BankClient calls daddybank.v1.BankService over a client connection.
type BankClient struct {
	conn *gogrpc.ClientConn
}

// NewBankClient creates a new BankClient connected to the specified address
func NewBankClient(addr string) (*BankClient, error) {
	conn, err := gogrpc.NewClient(
		addr,
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bank service: %w", err)
	}
	return &BankClient{conn: conn}, nil
}

// NewBankClientFromConn creates a new BankClient from an existing gRPC connection.
func NewBankClientFromConn(conn *gogrpc.ClientConn) *BankClient {
	return &BankClient{conn: conn}
}

// invoke sends one unary call with the JSON codec.
func invoke[Resp any](ctx context.Context, c *BankClient, method string, req any, opts []gogrpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]gogrpc.CallOption{gogrpc.CallContentSubtype(codecName)}, opts...)
	if err := c.conn.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BankClient) CreateAccount(ctx context.Context, req *CreateAccountRequest, opts ...gogrpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c, methodCreateAccount, req, opts)
}

func (c *BankClient) CreateCreditCard(ctx context.Context, req *CreateCreditCardRequest, opts ...gogrpc.CallOption) (*CreditCardResponse, error) {
	return invoke[CreditCardResponse](ctx, c, methodCreateCreditCard, req, opts)
}

func (c *BankClient) GetAccount(ctx context.Context, req *GetAccountRequest, opts ...gogrpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c, methodGetAccount, req, opts)
}

func (c *BankClient) GetCreditCard(ctx context.Context, req *GetCreditCardRequest, opts ...gogrpc.CallOption) (*CreditCardResponse, error) {
	return invoke[CreditCardResponse](ctx, c, methodGetCreditCard, req, opts)
}

func (c *BankClient) Deposit(ctx context.Context, req *DepositRequest, opts ...gogrpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c, methodDeposit, req, opts)
}

func (c *BankClient) Withdraw(ctx context.Context, req *WithdrawRequest, opts ...gogrpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c, methodWithdraw, req, opts)
}

func (c *BankClient) Charge(ctx context.Context, req *ChargeRequest, opts ...gogrpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c, methodCharge, req, opts)
}

func (c *BankClient) Payment(ctx context.Context, req *PaymentRequest, opts ...gogrpc.CallOption) (*TransactionResponse, error) {
	return invoke[TransactionResponse](ctx, c, methodPayment, req, opts)
}

func (c *BankClient) ListTransactions(ctx context.Context, req *ListTransactionsRequest, opts ...gogrpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c, methodListTransactions, req, opts)
}

func (c *BankClient) GetBillingLimit(ctx context.Context, req *GetBillingLimitRequest, opts ...gogrpc.CallOption) (*BillingLimitResponse, error) {
	return invoke[BillingLimitResponse](ctx, c, methodGetBillingLimit, req, opts)
}

func (c *BankClient) ProcessCarrierPayment(ctx context.Context, req *ProcessCarrierPaymentRequest, opts ...gogrpc.CallOption) (*CarrierPaymentResponse, error) {
	return invoke[CarrierPaymentResponse](ctx, c, methodProcessCarrierPayment, req, opts)
}

func (c *BankClient) VerifyCarrierPayment(ctx context.Context, req *VerifyCarrierPaymentRequest, opts ...gogrpc.CallOption) (*CarrierStatusResponse, error) {
	return invoke[CarrierStatusResponse](ctx, c, methodVerifyCarrierPayment, req, opts)
}

// Close closes the gRPC connection
func (c *BankClient) Close() error {
	return c.conn.Close()
}
