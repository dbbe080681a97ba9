// Command daddybank runs the Daddy Bank ledger and carrier billing flows from
// the terminal, either in-process or against a running server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/app"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/config"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/events"
	grpcserver "github.com/spbu-ds-practicum-2025/daddy-bank/internal/grpc"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/logging"
)

const usage = `Usage: daddybank [flags] <command> [args]

Commands:
  demo                          run the carrier billing demo
  pay PHONE AMOUNT DESCRIPTION  charge AMOUNT to PHONE's carrier bill
  limits PHONE                  show carrier billing limits for PHONE
  account create NUMBER HOLDER [BALANCE]
  account show NUMBER           show balance and history
  card create NUMBER HOLDER [LIMIT]
  card show NUMBER              show balance, available credit and history
  watch                         print events published to RabbitMQ

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("daddybank", flag.ContinueOnError)
	fs.SetOutput(stderr)
	remote := fs.String("remote", "", "address of a running daddy-bank gRPC server (default: in-process)")
	verbose := fs.Bool("v", false, "log at debug level")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	// watch prints events through the logger, so it needs info level
	level := "warn"
	switch {
	case *verbose:
		level = "debug"
	case cmd == "watch":
		level = "info"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	if cmd == "watch" {
		if err := watch(ctx, cfg, logger); err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		return 0
	}

	bank, closeBank, err := connect(cfg, logger, *remote)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer closeBank()

	c := &cli{bank: bank, out: stdout}

	switch cmd {
	case "demo":
		err = c.demo(ctx)
	case "pay":
		if len(cmdArgs) != 3 {
			fs.Usage()
			return 2
		}
		var resp *grpcserver.CarrierPaymentResponse
		resp, err = c.pay(ctx, cmdArgs[0], cmdArgs[1], cmdArgs[2])
		if err == nil && !resp.Success {
			err = errReported
		}
	case "limits":
		if len(cmdArgs) != 1 {
			fs.Usage()
			return 2
		}
		err = c.limits(ctx, cmdArgs[0])
	case "account":
		err = c.account(ctx, cmdArgs)
	case "card":
		err = c.card(ctx, cmdArgs)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	if errors.Is(err, errUsage) {
		fs.Usage()
		return 2
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stdout, "Error:", err)
		}
		return 1
	}
	return 0
}

// connect returns an in-process BankService, or a gRPC-backed one when addr is set.
func connect(cfg *config.Config, logger *zap.Logger, addr string) (grpcserver.BankService, func(), error) {
	if addr != "" {
		client, err := grpcserver.NewBankClient(addr)
		if err != nil {
			return nil, nil, err
		}
		return remoteBank{client}, func() { client.Close() }, nil
	}

	services, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return services.Bank, func() { services.Close() }, nil
}

func watch(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	consumer, err := events.NewConsumer(events.ConsumerConfig{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: "#",
	}, events.LogHandler{Logger: logger}, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	return consumer.Start(ctx)
}
