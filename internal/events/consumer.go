package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrUnknownEventType is returned for messages whose eventType no handler accepts.
var ErrUnknownEventType = errors.New("unknown event type")

// Handler receives decoded events. Exactly one callback fires per message.
type Handler interface {
	HandleTransactionRecorded(ctx context.Context, event TransactionRecordedEvent) error
	HandleCarrierPaymentInitiated(ctx context.Context, event CarrierPaymentInitiatedEvent) error
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	URL        string
	Exchange   string
	Queue      string // empty for a server-named exclusive queue
	RoutingKey string // binding pattern, "#" for everything
}

// Consumer reads ledger and carrier events from RabbitMQ.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler Handler
	logger  *zap.Logger
}

// NewConsumer connects, declares the exchange and binds the queue.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = "#"
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		channel.Close()
		conn.Close()
	}

	if err := declareExchange(channel, cfg.Exchange); err != nil {
		closeAll()
		return nil, err
	}

	// a named queue survives restarts, an anonymous one is scoped to this consumer
	named := cfg.Queue != ""
	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		named,     // durable
		!named,    // delete when unused
		!named,    // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("RabbitMQ consumer initialized",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", queue.Name),
		zap.String("routing_key", cfg.RoutingKey))

	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   queue.Name,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("RabbitMQ consumer started", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, stopping RabbitMQ consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			err := c.Dispatch(ctx, msg.Body)
			switch {
			case err == nil:
				msg.Ack(false)
			case errors.Is(err, ErrUnknownEventType), isDecodeError(err):
				// redelivery can't fix a malformed message
				c.logger.Warn("dropping message", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
				msg.Nack(false, false)
			default:
				c.logger.Error("error handling message", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
				msg.Nack(false, true)
			}
		}
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to unmarshal event: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// Dispatch decodes body by its eventType and hands it to the handler.
func (c *Consumer) Dispatch(ctx context.Context, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &decodeError{err}
	}

	switch env.EventType {
	case EventTypeTransactionRecorded:
		var event TransactionRecordedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return &decodeError{err}
		}
		return c.handler.HandleTransactionRecorded(ctx, event)

	case EventTypeCarrierPaymentInitiated:
		var event CarrierPaymentInitiatedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return &decodeError{err}
		}
		return c.handler.HandleCarrierPaymentInitiated(ctx, event)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, env.EventType)
	}
}

// Close closes the RabbitMQ channel and connection.
func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		c.logger.Warn("error closing channel", zap.Error(err))
	}
	return c.conn.Close()
}
