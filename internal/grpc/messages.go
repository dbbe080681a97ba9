package grpc

// Amount is a monetary value on the wire.
type Amount struct {
	Value        string `json:"value" validate:"required,amount"`
	CurrencyCode string `json:"currencyCode,omitempty" validate:"omitempty,len=3"`
}

type CreateAccountRequest struct {
	AccountNumber  string  `json:"accountNumber" validate:"required"`
	Holder         string  `json:"holder" validate:"required"`
	OpeningBalance *Amount `json:"openingBalance,omitempty"`
}

type AccountResponse struct {
	AccountNumber string `json:"accountNumber"`
	Holder        string `json:"holder"`
	Balance       Amount `json:"balance"`
	CreatedAt     string `json:"createdAt"`
}

type CreateCreditCardRequest struct {
	CardNumber  string  `json:"cardNumber" validate:"required"`
	Holder      string  `json:"holder" validate:"required"`
	CreditLimit *Amount `json:"creditLimit,omitempty"` // 1000.00 when omitted
}

type CreditCardResponse struct {
	CardNumber      string `json:"cardNumber"`
	Holder          string `json:"holder"`
	CreditLimit     Amount `json:"creditLimit"`
	Balance         Amount `json:"balance"`
	AvailableCredit Amount `json:"availableCredit"`
	CreatedAt       string `json:"createdAt"`
}

type GetAccountRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
}

type GetCreditCardRequest struct {
	CardNumber string `json:"cardNumber" validate:"required"`
}

type DepositRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
	Amount        Amount `json:"amount"`
	Description   string `json:"description,omitempty"`
}

type WithdrawRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
	Amount        Amount `json:"amount"`
	Description   string `json:"description,omitempty"`
}

type ChargeRequest struct {
	CardNumber string `json:"cardNumber" validate:"required"`
	Amount     Amount `json:"amount"`
	Merchant   string `json:"merchant,omitempty"`
}

type PaymentRequest struct {
	CardNumber string `json:"cardNumber" validate:"required"`
	Amount     Amount `json:"amount"`
	Method     string `json:"method,omitempty"`
}

// Transaction is one ledger entry. Amount is signed.
type Transaction struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Amount       Amount `json:"amount"`
	Description  string `json:"description"`
	Timestamp    string `json:"timestamp"`
	BalanceAfter Amount `json:"balanceAfter"`
}

type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

// ListTransactionsRequest names exactly one ledger entity.
type ListTransactionsRequest struct {
	AccountNumber string `json:"accountNumber,omitempty" validate:"required_without=CardNumber,excluded_with=CardNumber"`
	CardNumber    string `json:"cardNumber,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type GetBillingLimitRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type BillingLimitResponse struct {
	PhoneNumber      string `json:"phoneNumber"`
	DailyLimit       Amount `json:"dailyLimit"`
	MonthlyLimit     Amount `json:"monthlyLimit"`
	AvailableToday   Amount `json:"availableToday"`
	AvailableMonthly Amount `json:"availableMonthly"`
}

// ProcessCarrierPaymentRequest leaves number and amount checks to the carrier
// gateway so rejections carry their error kind.
type ProcessCarrierPaymentRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Amount      Amount `json:"amount" validate:"-"`
	Description string `json:"description,omitempty"`
}

// CarrierPaymentResponse reports business rejections in-band: Success is false,
// ErrorKind names the reason and TransactionID is set if the provider was reached.
type CarrierPaymentResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
	Amount        Amount `json:"amount"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	ErrorKind     string `json:"errorKind,omitempty"`
}

type VerifyCarrierPaymentRequest struct {
	TransactionID string `json:"transactionId" validate:"required,uuid"`
}

type CarrierStatusResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	UpdatedAt     string `json:"updatedAt"`
}
