// Package publisher streams order book quotes to a downstream sink
// whenever a book changes.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/efreitasn/fakeexchange/internal/engine"
)

// Publisher turns book change notifications into quotes. Notifications are
// queued without blocking the trading path and a single worker, started
// with Run, builds and sends the quotes in arrival order.
type Publisher struct {
	source  string
	sink    Sink
	queue   chan *engine.OrderBook
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Publisher that queues up to buffer pending notifications
// and gives each send at most timeout.
func New(source string, sink Sink, buffer int, timeout time.Duration, logger *slog.Logger) *Publisher {
	return &Publisher{
		source:  source,
		sink:    sink,
		queue:   make(chan *engine.OrderBook, buffer),
		timeout: timeout,
		logger:  logger,
	}
}

// Subscribe registers the publisher with every book. The returned function
// removes all of the subscriptions.
func (p *Publisher) Subscribe(books []*engine.OrderBook) (unsubscribe func()) {
	cancels := make([]func(), 0, len(books))
	for _, book := range books {
		cancels = append(cancels, book.Subscribe(p.OnBookChanged))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// OnBookChanged queues book for publishing. When the queue is full the
// notification is dropped; a later one carries the newer state.
func (p *Publisher) OnBookChanged(book *engine.OrderBook) {
	select {
	case p.queue <- book:
	default:
		p.logger.Warn("quote queue full, dropping notification", slog.String("pair", book.Pair()))
	}
}

// Run publishes queued books until ctx is cancelled. Send failures are
// logged and do not stop the loop.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("quote publisher started")
	defer p.logger.Info("quote publisher stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case book := <-p.queue:
			if err := p.publish(ctx, book); err != nil {
				p.logger.Error("publish quote",
					slog.String("pair", book.Pair()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, book *engine.OrderBook) error {
	quote := BuildQuote(p.source, book, time.Now())
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.sink.Send(ctx, quote.Asset, payload)
}
