package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/john-samurai/birdtag-go/internal/logging"
)

// Bus provides asynchronous record event processing with non-blocking
// publish guarantees.
type Bus struct {
	eventChan chan RecordEvent

	bufferSize int
	workers    int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
	mu      sync.Mutex

	consumers []Consumer

	stats BusStats

	logger *slog.Logger
}

// Config holds event bus configuration.
type Config struct {
	BufferSize int
	Workers    int
}

// DefaultConfig returns the default event bus configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferSize: 1024,
		Workers:    2,
	}
}

// NewBus creates an event bus. Workers start when the first consumer is
// registered.
func NewBus(config *Config) *Bus {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Bus{
		eventChan:  make(chan RecordEvent, config.BufferSize),
		bufferSize: config.BufferSize,
		workers:    config.Workers,
		ctx:        ctx,
		cancel:     cancel,
		consumers:  make([]Consumer, 0),
		logger:     logging.ForService("events"),
	}
}

// RegisterConsumer adds a new event consumer.
func (b *Bus) RegisterConsumer(consumer Consumer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.consumers {
		if existing.Name() == consumer.Name() {
			return fmt.Errorf("consumer %s already registered", consumer.Name())
		}
	}

	b.consumers = append(b.consumers, consumer)

	b.logger.Info("registered event consumer", "consumer", consumer.Name())

	// Start workers once there is someone to deliver to.
	if len(b.consumers) == 1 && !b.running.Load() {
		b.start()
	}

	return nil
}

// TryPublish attempts to publish an event without blocking.
// Returns true if the event was accepted, false if dropped.
func (b *Bus) TryPublish(event RecordEvent) bool {
	if !b.running.Load() {
		return false
	}

	select {
	case b.eventChan <- event:
		atomic.AddUint64(&b.stats.EventsReceived, 1)
		return true
	default:
		// Channel full, drop the event.
		atomic.AddUint64(&b.stats.EventsDropped, 1)
		b.logger.Debug("event dropped due to full buffer",
			"kind", event.Kind,
			"record", event.New.ID,
		)
		return false
	}
}

// start begins the worker goroutines.
func (b *Bus) start() {
	if b.running.Swap(true) {
		return // Already running
	}

	b.logger.Info("starting event bus workers", "count", b.workers)

	for i := range b.workers {
		b.wg.Add(1)
		go b.worker(i)
	}
}

// worker processes events from the channel.
func (b *Bus) worker(id int) {
	defer b.wg.Done()

	logger := b.logger.With("worker_id", id)

	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventChan:
			if !ok {
				return
			}
			b.processEvent(event, logger)
		}
	}
}

// processEvent sends the event to all registered consumers.
func (b *Bus) processEvent(event RecordEvent, logger *slog.Logger) {
	b.mu.Lock()
	consumers := make([]Consumer, len(b.consumers))
	copy(consumers, b.consumers)
	b.mu.Unlock()

	for _, consumer := range consumers {
		// Recovery wrapper so one consumer's panic cannot kill the worker.
		func() {
			defer func() {
				if r := recover(); r != nil {
					atomic.AddUint64(&b.stats.ConsumerErrors, 1)
					logger.Error("consumer panicked",
						"consumer", consumer.Name(),
						"panic", r,
						"kind", event.Kind,
					)
				}
			}()

			if err := consumer.ProcessEvent(event); err != nil {
				atomic.AddUint64(&b.stats.ConsumerErrors, 1)
				logger.Error("consumer error",
					"consumer", consumer.Name(),
					"error", err,
					"kind", event.Kind,
				)
				return
			}
			atomic.AddUint64(&b.stats.EventsProcessed, 1)
		}()
	}
}

// Shutdown gracefully shuts down the event bus.
func (b *Bus) Shutdown(timeout time.Duration) error {
	b.logger.Info("shutting down event bus", "timeout", timeout)

	b.running.Store(false)
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus shutdown complete")
		return nil
	case <-time.After(timeout):
		b.logger.Warn("event bus shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// GetStats returns current event bus statistics.
func (b *Bus) GetStats() BusStats {
	return BusStats{
		EventsReceived:  atomic.LoadUint64(&b.stats.EventsReceived),
		EventsProcessed: atomic.LoadUint64(&b.stats.EventsProcessed),
		EventsDropped:   atomic.LoadUint64(&b.stats.EventsDropped),
		ConsumerErrors:  atomic.LoadUint64(&b.stats.ConsumerErrors),
	}
}
