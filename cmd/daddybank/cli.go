package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/status"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
	grpcserver "github.com/spbu-ds-practicum-2025/daddy-bank/internal/grpc"
)

var (
	// errReported marks failures already printed for the user.
	errReported = errors.New("reported")
	errUsage    = errors.New("usage")
)

const (
	demoAccount = "12345"
	demoCard    = "4567"
	demoHolder  = "John Doe"
	demoPhone   = "505-123-4567"
)

type cli struct {
	bank grpcserver.BankService
	out  io.Writer
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// pay prints the outcome of one carrier payment. A rejected payment is not an
// error here; callers look at Success.
func (c *cli) pay(ctx context.Context, phone, amount, description string) (*grpcserver.CarrierPaymentResponse, error) {
	if _, err := decimal.NewFromString(amount); err != nil {
		c.printf("Error: Amount must be a valid number\n")
		return nil, errReported
	}

	c.printf("Processing carrier billing payment...\n")
	c.printf("Phone: %s\n", phone)
	c.printf("Amount: $%s\n", amount)
	c.printf("Description: %s\n", description)
	c.printf("%s\n", strings.Repeat("-", 50))

	resp, err := c.bank.ProcessCarrierPayment(ctx, &grpcserver.ProcessCarrierPaymentRequest{
		PhoneNumber: phone,
		Amount:      grpcserver.Amount{Value: amount, CurrencyCode: domain.CurrencyUSD},
		Description: description,
	})
	if err != nil {
		c.printf("Payment failed!\nError: %s\n", status.Convert(err).Message())
		return nil, errReported
	}

	if resp.Success {
		c.printf("Payment successful!\n")
		c.printf("Transaction ID: %s\n", resp.TransactionID)
		c.printf("Status: %s\n", resp.Status)
		c.printf("Message: %s\n", resp.Message)
	} else {
		c.printf("Payment failed!\n")
		c.printf("Error: %s\n", resp.Message)
		if resp.TransactionID != "" {
			c.printf("Transaction ID: %s\n", resp.TransactionID)
		}
	}
	return resp, nil
}

func (c *cli) limits(ctx context.Context, phone string) error {
	c.printf("Checking carrier billing limits for %s...\n", phone)

	resp, err := c.bank.GetBillingLimit(ctx, &grpcserver.GetBillingLimitRequest{PhoneNumber: phone})
	if err != nil {
		c.printf("Error: %s\n", status.Convert(err).Message())
		return errReported
	}

	c.printf("Carrier Billing Limits:\n")
	c.printf("Daily Limit: $%s\n", resp.DailyLimit.Value)
	c.printf("Monthly Limit: $%s\n", resp.MonthlyLimit.Value)
	c.printf("Available Today: $%s\n", resp.AvailableToday.Value)
	c.printf("Available Monthly: $%s\n", resp.AvailableMonthly.Value)
	return nil
}

// demo walks through the carrier scenarios against a fresh account and card.
// Accepted payments are credited to the account explicitly; nothing is retried.
func (c *cli) demo(ctx context.Context) error {
	c.printf("Daddy Bank - Carrier Billing Demo\n")
	c.printf("%s\n", strings.Repeat("=", 50))

	account, err := c.bank.CreateAccount(ctx, &grpcserver.CreateAccountRequest{
		AccountNumber:  demoAccount,
		Holder:         demoHolder,
		OpeningBalance: &grpcserver.Amount{Value: "100.00"},
	})
	if err != nil {
		return fmt.Errorf("create account: %s", status.Convert(err).Message())
	}
	c.printf("Created account %s for %s\n", account.AccountNumber, account.Holder)
	c.printf("Initial balance: $%s\n", account.Balance.Value)

	card, err := c.bank.CreateCreditCard(ctx, &grpcserver.CreateCreditCardRequest{
		CardNumber:  demoCard,
		Holder:      demoHolder,
		CreditLimit: &grpcserver.Amount{Value: "500.00"},
	})
	if err != nil {
		return fmt.Errorf("create credit card: %s", status.Convert(err).Message())
	}
	c.printf("Created credit card %s with limit $%s\n", card.CardNumber, card.CreditLimit.Value)

	c.printf("\n1. Checking carrier billing limits:\n")
	if err := c.limits(ctx, demoPhone); err != nil && !errors.Is(err, errReported) {
		return err
	}

	scenarios := []struct {
		title       string
		phone       string
		amount      string
		description string
	}{
		{"2. Processing $15.99 payment via carrier billing:", demoPhone, "15.99", "Coffee Shop Purchase"},
		{"3. Processing $45.00 payment via carrier billing:", demoPhone, "45.00", "Online Store Purchase"},
		{"4. Testing with a number the carrier doesn't serve:", "555-123-4567", "10.00", "Test Purchase"},
		{"5. Testing with amount over limit:", demoPhone, "75.00", "Large Purchase"},
	}
	for _, s := range scenarios {
		c.printf("\n%s\n", s.title)
		resp, err := c.pay(ctx, s.phone, s.amount, s.description)
		if err != nil {
			if errors.Is(err, errReported) {
				continue
			}
			return err
		}
		if resp.Success {
			if err := c.reconcile(ctx, resp); err != nil {
				return err
			}
		}
	}

	history, err := c.bank.ListTransactions(ctx, &grpcserver.ListTransactionsRequest{AccountNumber: demoAccount})
	if err != nil {
		return fmt.Errorf("list transactions: %s", status.Convert(err).Message())
	}
	c.printf("\nAccount Transaction History:\n")
	if len(history.Transactions) == 0 {
		c.printf("   (no transactions)\n")
	}
	for _, tx := range history.Transactions {
		c.printf("   %s: $%s - %s\n", tx.Kind, signed(tx.Amount.Value), tx.Description)
	}

	final, err := c.bank.GetAccount(ctx, &grpcserver.GetAccountRequest{AccountNumber: demoAccount})
	if err != nil {
		return fmt.Errorf("get account: %s", status.Convert(err).Message())
	}
	c.printf("\nFinal account balance: $%s\n", final.Balance.Value)
	c.printf("\nDemo completed.\n")
	return nil
}

// reconcile credits an accepted carrier payment to the demo account.
func (c *cli) reconcile(ctx context.Context, resp *grpcserver.CarrierPaymentResponse) error {
	dep, err := c.bank.Deposit(ctx, &grpcserver.DepositRequest{
		AccountNumber: demoAccount,
		Amount:        resp.Amount,
		Description:   "Carrier payment " + resp.TransactionID,
	})
	if err != nil {
		return fmt.Errorf("reconcile %s: %s", resp.TransactionID, status.Convert(err).Message())
	}
	c.printf("Account balance updated: $%s\n", dep.Transaction.BalanceAfter.Value)
	return nil
}

func signed(v string) string {
	if strings.HasPrefix(v, "-") {
		return v
	}
	return "+" + v
}

func (c *cli) account(ctx context.Context, args []string) error {
	switch {
	case len(args) >= 3 && len(args) <= 4 && args[0] == "create":
		req := &grpcserver.CreateAccountRequest{AccountNumber: args[1], Holder: args[2]}
		if len(args) == 4 {
			req.OpeningBalance = &grpcserver.Amount{Value: args[3]}
		}
		acc, err := c.bank.CreateAccount(ctx, req)
		if err != nil {
			c.printf("Error: %s\n", status.Convert(err).Message())
			return errReported
		}
		c.printf("Created account %s for %s\n", acc.AccountNumber, acc.Holder)
		c.printf("Initial balance: $%s\n", acc.Balance.Value)
		return nil
	case len(args) == 2 && args[0] == "show":
		acc, err := c.bank.GetAccount(ctx, &grpcserver.GetAccountRequest{AccountNumber: args[1]})
		if err != nil {
			c.printf("Error: %s\n", status.Convert(err).Message())
			return errReported
		}
		c.printf("Account %s (%s)\n", acc.AccountNumber, acc.Holder)
		c.printf("Balance: $%s\n", acc.Balance.Value)
		return c.history(ctx, &grpcserver.ListTransactionsRequest{AccountNumber: acc.AccountNumber})
	}
	return errUsage
}

func (c *cli) card(ctx context.Context, args []string) error {
	switch {
	case len(args) >= 3 && len(args) <= 4 && args[0] == "create":
		req := &grpcserver.CreateCreditCardRequest{CardNumber: args[1], Holder: args[2]}
		if len(args) == 4 {
			req.CreditLimit = &grpcserver.Amount{Value: args[3]}
		}
		card, err := c.bank.CreateCreditCard(ctx, req)
		if err != nil {
			c.printf("Error: %s\n", status.Convert(err).Message())
			return errReported
		}
		c.printf("Created credit card %s with limit $%s\n", card.CardNumber, card.CreditLimit.Value)
		return nil
	case len(args) == 2 && args[0] == "show":
		card, err := c.bank.GetCreditCard(ctx, &grpcserver.GetCreditCardRequest{CardNumber: args[1]})
		if err != nil {
			c.printf("Error: %s\n", status.Convert(err).Message())
			return errReported
		}
		c.printf("Card %s (%s)\n", card.CardNumber, card.Holder)
		c.printf("Balance: $%s of $%s, available $%s\n",
			card.Balance.Value, card.CreditLimit.Value, card.AvailableCredit.Value)
		return c.history(ctx, &grpcserver.ListTransactionsRequest{CardNumber: card.CardNumber})
	}
	return errUsage
}

func (c *cli) history(ctx context.Context, req *grpcserver.ListTransactionsRequest) error {
	resp, err := c.bank.ListTransactions(ctx, req)
	if err != nil {
		c.printf("Error: %s\n", status.Convert(err).Message())
		return errReported
	}
	for _, tx := range resp.Transactions {
		c.printf("   %s: $%s - %s\n", tx.Kind, signed(tx.Amount.Value), tx.Description)
	}
	return nil
}
