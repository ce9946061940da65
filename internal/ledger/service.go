package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"lavagens/internal/core"
	"lavagens/internal/store"
)

// ChangePublisher forwards confirmed store mutations to an external bus so
// other processes (the report sync worker) can recompute. Publishing is
// best-effort: the local write already succeeded.
type ChangePublisher interface {
	PublishChange(ctx context.Context, c store.Change) error
}

// Service computes summaries and balances from store snapshots and records
// new events. Every computation reads a fresh snapshot; there is no
// accumulator that could drift from the store.
type Service struct {
	store    store.Store
	selector *Selector
	pub      ChangePublisher
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher attaches a change publisher. Pass nil to disable (default).
func WithPublisher(pub ChangePublisher) Option {
	return func(s *Service) { s.pub = pub }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, sel *Selector, opts ...Option) *Service {
	s := &Service{store: st, selector: sel, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Selector exposes the month selector shared with the HTTP layer.
func (s *Service) Selector() *Selector { return s.selector }

// Watch relays the store's change notifications.
func (s *Service) Watch(ctx context.Context) <-chan store.Change {
	return s.store.Watch(ctx)
}

// Summary computes the monthly view for the selected period.
func (s *Service) Summary(ctx context.Context) (core.MonthlySummary, error) {
	return s.SummaryAt(ctx, s.selector.Current())
}

// SummaryAt computes the monthly view for an explicit period.
func (s *Service) SummaryAt(ctx context.Context, p core.Period) (core.MonthlySummary, error) {
	washes, err := s.store.Washes(ctx)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("read washes: %w", err)
	}
	purchases, err := s.store.Purchases(ctx)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("read purchases: %w", err)
	}
	return core.Summarize(washes, purchases, p), nil
}

// Balance computes the designated partner's lifetime running balance. It is
// independent of the selected period: both streams are read in full.
func (s *Service) Balance(ctx context.Context) (core.PartnerBalance, error) {
	washes, err := s.store.Washes(ctx)
	if err != nil {
		return core.PartnerBalance{}, fmt.Errorf("read washes: %w", err)
	}
	withdrawals, err := s.store.Withdrawals(ctx)
	if err != nil {
		return core.PartnerBalance{}, fmt.Errorf("read withdrawals: %w", err)
	}
	return core.BalanceFor(core.DesignatedPartner, washes, withdrawals), nil
}

// ListWithdrawals returns the full withdrawal history, newest last.
func (s *Service) ListWithdrawals(ctx context.Context) ([]core.WithdrawalRecord, error) {
	withdrawals, err := s.store.Withdrawals(ctx)
	if err != nil {
		return nil, fmt.Errorf("read withdrawals: %w", err)
	}
	return withdrawals, nil
}

// RecordWash appends a revenue event.
func (s *Service) RecordWash(ctx context.Context, w core.Wash) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}
	id, err := s.store.AppendWash(ctx, w)
	if err != nil {
		return "", fmt.Errorf("append wash: %w", err)
	}
	s.publish(ctx, store.Change{Stream: store.StreamWashes, Op: store.OpAppend, ID: id})
	return id, nil
}

// DeleteWash retracts a revenue event; the next balance and summary
// computations no longer include it.
func (s *Service) DeleteWash(ctx context.Context, id string) error {
	if err := s.store.DeleteWash(ctx, id); err != nil {
		return fmt.Errorf("delete wash: %w", err)
	}
	s.publish(ctx, store.Change{Stream: store.StreamWashes, Op: store.OpDelete, ID: id})
	return nil
}

// RecordPurchase appends an expense event.
func (s *Service) RecordPurchase(ctx context.Context, p core.Purchase) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	id, err := s.store.AppendPurchase(ctx, p)
	if err != nil {
		return "", fmt.Errorf("append purchase: %w", err)
	}
	s.publish(ctx, store.Change{Stream: store.StreamPurchases, Op: store.OpAppend, ID: id})
	return id, nil
}

// DeletePurchase retracts an expense event.
func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	if err := s.store.DeletePurchase(ctx, id); err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	s.publish(ctx, store.Change{Stream: store.StreamPurchases, Op: store.OpDelete, ID: id})
	return nil
}

// RecordWithdrawal appends a withdrawal for the designated partner, dated
// now with the default note. Non-positive amounts are rejected before any
// write is attempted. Once the store acknowledges the append the withdrawal
// is part of every subsequent balance computation.
func (s *Service) RecordWithdrawal(ctx context.Context, amount decimal.Decimal) (core.WithdrawalRecord, error) {
	w := core.Withdrawal{
		OccurredAt: s.now().UTC(),
		Amount:     amount,
		Note:       core.DefaultWithdrawalNote,
	}
	if err := w.Validate(); err != nil {
		return core.WithdrawalRecord{}, err
	}

	id, err := s.store.AppendWithdrawal(ctx, w)
	if err != nil {
		return core.WithdrawalRecord{}, fmt.Errorf("append withdrawal: %w", err)
	}

	s.publish(ctx, store.Change{Stream: store.StreamWithdrawals, Op: store.OpAppend, ID: id})
	return core.WithdrawalRecord{ID: id, Withdrawal: w}, nil
}

// DeleteWithdrawal retracts a withdrawal; outstanding rises by its amount on
// the next balance computation.
func (s *Service) DeleteWithdrawal(ctx context.Context, id string) error {
	if err := s.store.DeleteWithdrawal(ctx, id); err != nil {
		return fmt.Errorf("delete withdrawal: %w", err)
	}
	s.publish(ctx, store.Change{Stream: store.StreamWithdrawals, Op: store.OpDelete, ID: id})
	return nil
}

func (s *Service) publish(ctx context.Context, c store.Change) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishChange(ctx, c); err != nil {
		// The write is already durable; the worker resyncs periodically.
		slog.ErrorContext(ctx, "Failed to publish change notification",
			"stream", c.Stream, "op", c.Op, "id", c.ID, "error", err)
	}
}
