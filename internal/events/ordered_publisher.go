package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/carrier"
	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// DefaultQueueSize bounds the events waiting for the broker.
const DefaultQueueSize = 1024

var (
	// ErrQueueFull is returned when the publisher is too far behind the broker
	ErrQueueFull = errors.New("event queue full")

	// ErrPublisherClosed is returned after Close
	ErrPublisherClosed = errors.New("event publisher closed")
)

// Sink delivers events, typically a RabbitMQPublisher.
type Sink interface {
	domain.EventPublisher
	carrier.PaymentPublisher
}

type queuedEvent struct {
	eventType string
	send      func(context.Context) error
}

// OrderedPublisher queues events and hands them to the sink from a single worker,
// so events reach the broker in the order they were published. Publish calls
// never wait for the broker.
type OrderedPublisher struct {
	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
	sink   Sink
	logger *zap.Logger
}

// NewOrderedPublisher starts the worker. size <= 0 means DefaultQueueSize.
func NewOrderedPublisher(sink Sink, size int, logger *zap.Logger) *OrderedPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultQueueSize
	}
	p := &OrderedPublisher{
		queue:  make(chan queuedEvent, size),
		done:   make(chan struct{}),
		sink:   sink,
		logger: logger,
	}
	go p.run()
	return p
}

// PublishTransactionRecorded queues a ledger.transaction.recorded event.
func (p *OrderedPublisher) PublishTransactionRecorded(_ context.Context, owner domain.LedgerOwner, ownerNumber string, tx domain.Transaction) error {
	return p.enqueue(queuedEvent{
		eventType: EventTypeTransactionRecorded,
		send: func(ctx context.Context) error {
			return p.sink.PublishTransactionRecorded(ctx, owner, ownerNumber, tx)
		},
	})
}

// PublishCarrierPayment queues a carrier.payment.initiated event.
func (p *OrderedPublisher) PublishCarrierPayment(_ context.Context, phone string, outcome carrier.PaymentOutcome) error {
	return p.enqueue(queuedEvent{
		eventType: EventTypeCarrierPaymentInitiated,
		send: func(ctx context.Context) error {
			return p.sink.PublishCarrierPayment(ctx, phone, outcome)
		},
	})
}

func (p *OrderedPublisher) enqueue(ev queuedEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *OrderedPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		if err := ev.send(context.Background()); err != nil {
			p.logger.Warn("failed to publish event",
				zap.String("event_type", ev.eventType),
				zap.Error(err))
		}
	}
}

// Close stops accepting events and waits until the queued ones are delivered.
func (p *OrderedPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}
