package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "daddybank.v1.BankService"

const (
	methodCreateAccount         = "CreateAccount"
	methodCreateCreditCard      = "CreateCreditCard"
	methodGetAccount            = "GetAccount"
	methodGetCreditCard         = "GetCreditCard"
	methodDeposit               = "Deposit"
	methodWithdraw              = "Withdraw"
	methodCharge                = "Charge"
	methodPayment               = "Payment"
	methodListTransactions      = "ListTransactions"
	methodGetBillingLimit       = "GetBillingLimit"
	methodProcessCarrierPayment = "ProcessCarrierPayment"
	methodVerifyCarrierPayment  = "VerifyCarrierPayment"
)

// BankService is the server API for daddybank.v1.BankService.
type BankService interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*AccountResponse, error)
	CreateCreditCard(context.Context, *CreateCreditCardRequest) (*CreditCardResponse, error)
	GetAccount(context.Context, *GetAccountRequest) (*AccountResponse, error)
	GetCreditCard(context.Context, *GetCreditCardRequest) (*CreditCardResponse, error)
	Deposit(context.Context, *DepositRequest) (*TransactionResponse, error)
	Withdraw(context.Context, *WithdrawRequest) (*TransactionResponse, error)
	Charge(context.Context, *ChargeRequest) (*TransactionResponse, error)
	Payment(context.Context, *PaymentRequest) (*TransactionResponse, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	GetBillingLimit(context.Context, *GetBillingLimitRequest) (*BillingLimitResponse, error)
	ProcessCarrierPayment(context.Context, *ProcessCarrierPaymentRequest) (*CarrierPaymentResponse, error)
	VerifyCarrierPayment(context.Context, *VerifyCarrierPaymentRequest) (*CarrierStatusResponse, error)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary adapts a typed BankService method to a grpc.MethodHandler.
func unary[Req, Resp any](method string, call func(BankService, context.Context, *Req) (*Resp, error)) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			svc := srv.(BankService)
			if interceptor == nil {
				return call(svc, ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(svc, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BankServiceDesc describes daddybank.v1.BankService for grpc.Server.RegisterService.
var BankServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BankService)(nil),
	Methods: []gogrpc.MethodDesc{
		unary(methodCreateAccount, BankService.CreateAccount),
		unary(methodCreateCreditCard, BankService.CreateCreditCard),
		unary(methodGetAccount, BankService.GetAccount),
		unary(methodGetCreditCard, BankService.GetCreditCard),
		unary(methodDeposit, BankService.Deposit),
		unary(methodWithdraw, BankService.Withdraw),
		unary(methodCharge, BankService.Charge),
		unary(methodPayment, BankService.Payment),
		unary(methodListTransactions, BankService.ListTransactions),
		unary(methodGetBillingLimit, BankService.GetBillingLimit),
		unary(methodProcessCarrierPayment, BankService.ProcessCarrierPayment),
		unary(methodVerifyCarrierPayment, BankService.VerifyCarrierPayment),
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "",
}

// RegisterBankServiceServer registers srv on s.
func RegisterBankServiceServer(s gogrpc.ServiceRegistrar, srv BankService) {
	s.RegisterService(&BankServiceDesc, srv)
}
