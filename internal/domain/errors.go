package domain

import "errors"

var (
	// ErrInvalidAmount is returned for non-positive, malformed or out-of-range amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the account balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverCreditLimit is returned when a charge would push the card over its limit
	ErrOverCreditLimit = errors.New("over credit limit")

	// ErrPaymentExceedsBalance is returned when a card payment is larger than the outstanding balance
	ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")

	// ErrIneligibleNumber is returned when a phone number fails the carrier format or prefix check
	ErrIneligibleNumber = errors.New("invalid carrier number")

	// ErrLimitExceeded is returned when an amount exceeds the customer's available carrier limit
	ErrLimitExceeded = errors.New("carrier billing limit exceeded")

	// ErrProviderUnavailable is returned on a transient carrier provider failure
	ErrProviderUnavailable = errors.New("carrier billing service temporarily unavailable")

	// ErrDuplicateKey is returned when an account or card number is already registered
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAccountNotFound is returned when an account doesn't exist
	ErrAccountNotFound = errors.New("account not found")

	// ErrCardNotFound is returned when a credit card doesn't exist
	ErrCardNotFound = errors.New("credit card not found")

	// ErrTransactionNotFound is returned when a carrier transaction id is unknown
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrCurrencyMismatch is returned when a request names a currency other than USD
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidRequest is returned when a required field such as an account number is missing
	ErrInvalidRequest = errors.New("invalid request")
)

// ErrorKind classifies an error so callers can branch on it without matching messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidAmount
	KindInsufficientFunds
	KindOverCreditLimit
	KindIneligibleNumber
	KindLimitExceeded
	KindProviderUnavailable
	KindDuplicateKey
	KindNotFound
	KindInvalidRequest
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "UNKNOWN",
	KindInvalidAmount:       "INVALID_AMOUNT",
	KindInsufficientFunds:   "INSUFFICIENT_FUNDS",
	KindOverCreditLimit:     "OVER_CREDIT_LIMIT",
	KindIneligibleNumber:    "INELIGIBLE_NUMBER",
	KindLimitExceeded:       "LIMIT_EXCEEDED",
	KindProviderUnavailable: "PROVIDER_UNAVAILABLE",
	KindDuplicateKey:        "DUPLICATE_KEY",
	KindNotFound:            "NOT_FOUND",
	KindInvalidRequest:      "INVALID_REQUEST",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// KindOf reports the kind of err. A nil error has KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrCurrencyMismatch):
		return KindInvalidAmount
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrPaymentExceedsBalance):
		return KindInsufficientFunds
	case errors.Is(err, ErrOverCreditLimit):
		return KindOverCreditLimit
	case errors.Is(err, ErrIneligibleNumber):
		return KindIneligibleNumber
	case errors.Is(err, ErrLimitExceeded):
		return KindLimitExceeded
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrCardNotFound), errors.Is(err, ErrTransactionNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}
