package worker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"discovery-service/internal/broker"
	"discovery-service/internal/models"
	"discovery-service/internal/util"

	"go.uber.org/zap"
)

// HistoryStore is the append-only sink for search-history rows.
type HistoryStore interface {
	AppendSearchHistory(ctx context.Context, userID *int64, term string, at time.Time) error
}

// TermCounter keeps the cached term-frequency table in step with incoming
// events.
type TermCounter interface {
	IncrementTermCount(ctx context.Context, term string) error
}

// HistoryWorker consumes SearchPerformed events, persists the history rows
// and bumps the cached term counters.
type HistoryWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        HistoryStore
	counter      TermCounter
	logger       *zap.Logger
}

// NewHistoryWorker creates a new history worker. counter may be nil when no
// frequency cache is configured.
func NewHistoryWorker(consumer *broker.Consumer, store HistoryStore, counter TermCounter) *HistoryWorker {
	w := &HistoryWorker{
		consumer: consumer,
		store:    store,
		counter:  counter,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSearchPerformed(w.handleSearchPerformed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *HistoryWorker) Start(ctx context.Context) error {
	log.Println("Starting history worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *HistoryWorker) Stop() error {
	log.Println("Stopping history worker...")
	return w.consumer.Close()
}

// handleSearchPerformed persists one event. The raw term goes into the
// history row; the counter key is case-folded and trimmed like the
// popularity frequency table.
func (w *HistoryWorker) handleSearchPerformed(ctx context.Context, event *models.SearchPerformedEvent) error {
	if err := w.store.AppendSearchHistory(ctx, event.UserID, event.SearchItem, event.Timestamp); err != nil {
		return fmt.Errorf("failed to append search history: %w", err)
	}
	util.HistoryRowsAppended.Inc()

	if w.counter != nil {
		key := strings.ToLower(strings.TrimSpace(event.SearchItem))
		if key != "" {
			if err := w.counter.IncrementTermCount(ctx, key); err != nil {
				w.logger.Warn("Failed to bump term counter",
					zap.String("term", key),
					zap.Error(err))
			}
		}
	}

	return nil
}
