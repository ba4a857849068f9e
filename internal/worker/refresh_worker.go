// Package worker keeps the cached category tree converging on the
// backend: a periodic refetch backstops the optimistic cache, and
// change events from peer instances trigger an immediate one.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"buckets/internal/amqp"
)

// Refresher reloads the cached tree from the authoritative backend.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ChangeConsumer delivers peer change events until the context ends.
type ChangeConsumer interface {
	ConsumeCategoryChanges(ctx context.Context, handler func(*amqp.CategoryChangeMessage) error) error
}

type Config struct {
	// Interval between periodic refetches (default: 5m).
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: 5 * time.Minute}
}

// RefreshWorker runs the periodic refetch loop and, when a consumer is
// configured, the change event subscription.
type RefreshWorker struct {
	refresher Refresher
	consumer  ChangeConsumer
	config    Config

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshWorker(refresher Refresher, consumer ChangeConsumer, config Config) *RefreshWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &RefreshWorker{
		refresher: refresher,
		consumer:  consumer,
		config:    config,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	if w.consumer != nil {
		go w.consumeEvents(ctx)
	}

	slog.InfoContext(ctx, "Refresh worker started",
		"interval", w.config.Interval,
		"events_enabled", w.consumer != nil)

	return nil
}

// Stop gracefully stops the worker and waits for the loop to drain.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Refresh worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Warm the cache immediately on startup.
	w.refresh(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	if err := w.refresher.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Periodic tree refresh failed", "error", err)
	}
}

// consumeEvents subscribes to peer change events and refetches on each
// one. The event payload is advisory only; the refetch is what brings
// in the authoritative state.
func (w *RefreshWorker) consumeEvents(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := w.consumer.ConsumeCategoryChanges(ctx, func(msg *amqp.CategoryChangeMessage) error {
		slog.DebugContext(ctx, "Peer category change received",
			"id", msg.ID, "op", msg.Op)
		return w.refresher.Refresh(ctx)
	})
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Change event consumer exited", "error", err)
	}
}
