// Package worker keeps published monthly reports in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"lavagens/internal/amqp"
	"lavagens/internal/core"
	"lavagens/internal/store"
)

// SummaryPublisher receives the recomputed monthly summaries.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, s core.MonthlySummary) error
}

// SyncWorker recomputes monthly summaries from the ledger and pushes them
// to a publisher. Summaries are pure functions of the stored events, so the
// worker never tracks per-record sync state: any change message simply
// schedules a full recompute, and republishing is idempotent.
type SyncWorker struct {
	store     store.Store
	publisher SummaryPublisher
	resync    time.Duration
	debounce  time.Duration
	dirty     chan struct{}
}

func NewSyncWorker(s store.Store, publisher SummaryPublisher, resync time.Duration) *SyncWorker {
	if resync <= 0 {
		resync = 15 * time.Minute
	}
	return &SyncWorker{
		store:     s,
		publisher: publisher,
		resync:    resync,
		debounce:  2 * time.Second,
		dirty:     make(chan struct{}, 1),
	}
}

// HandleChange processes a single ledger change message from AMQP.
// It only schedules a recompute; the actual sync happens in Run, which
// coalesces bursts of changes into one pass.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"stream", msg.Stream,
		"op", msg.Op,
		"id", msg.ID)

	select {
	case w.dirty <- struct{}{}:
	default:
		// A recompute is already scheduled.
	}
	return nil
}

// Run performs a startup sync and then loops until the context is cancelled,
// syncing after change bursts and on the periodic resync interval. The
// periodic pass is the backup mechanism for lost AMQP messages.
func (w *SyncWorker) Run(ctx context.Context) error {
	if err := w.SyncAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sync failed", "error", err)
	}

	ticker := time.NewTicker(w.resync)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.dirty:
			w.waitForQuiet(ctx)
			if err := w.SyncAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Change-triggered sync failed", "error", err)
			}
		case <-ticker.C:
			if err := w.SyncAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

// waitForQuiet absorbs further dirty signals for one debounce window so a
// burst of appends produces a single recompute.
func (w *SyncWorker) waitForQuiet(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.dirty:
		case <-timer.C:
			return
		}
	}
}

// SyncAll recomputes and publishes the summary of every month that has at
// least one wash or purchase. Months are published in chronological order.
func (w *SyncWorker) SyncAll(ctx context.Context) error {
	washes, err := w.store.Washes(ctx)
	if err != nil {
		return fmt.Errorf("read washes: %w", err)
	}
	purchases, err := w.store.Purchases(ctx)
	if err != nil {
		return fmt.Errorf("read purchases: %w", err)
	}

	periods := activePeriods(washes, purchases)
	if len(periods) == 0 {
		slog.InfoContext(ctx, "No ledger entries, nothing to publish")
		return nil
	}

	var errs []error
	published := 0
	for _, p := range periods {
		s := core.Summarize(washes, purchases, p)
		if err := w.publisher.PublishSummary(ctx, s); err != nil {
			slog.ErrorContext(ctx, "Failed to publish summary",
				"period", p.String(),
				"error", err)
			errs = append(errs, fmt.Errorf("publish %s: %w", p, err))
			continue
		}
		published++
	}

	slog.InfoContext(ctx, "Sync completed",
		"periods", len(periods),
		"published", published,
		"errors", len(errs))
	return errors.Join(errs...)
}

// activePeriods returns the distinct months covered by the records, sorted.
func activePeriods(washes []core.WashRecord, purchases []core.PurchaseRecord) []core.Period {
	seen := map[core.Period]struct{}{}
	for _, w := range washes {
		seen[core.PeriodOf(w.OccurredAt)] = struct{}{}
	}
	for _, p := range purchases {
		seen[core.PeriodOf(p.OccurredAt)] = struct{}{}
	}
	periods := make([]core.Period, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year < periods[j].Year
		}
		return periods[i].Month < periods[j].Month
	})
	return periods
}
