package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"lavagens/internal/amqp"
	"lavagens/internal/core"
	"lavagens/internal/store"
	"lavagens/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	summaries []core.MonthlySummary
	fail      map[core.Period]error
}

func (p *recordingPublisher) PublishSummary(_ context.Context, s core.MonthlySummary) error {
	if err, ok := p.fail[s.Period]; ok {
		return err
	}
	p.summaries = append(p.summaries, s)
	return nil
}

func seedLedger(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	_, err := s.AppendWash(ctx, core.Wash{
		OccurredAt: time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
		Plate:   "AA-11-BB",
		Service: "Base Completa",
		Amount:  decimal.RequireFromString("25"),
	})
	require.NoError(t, err)
	_, err = s.AppendWash(ctx, core.Wash{
		OccurredAt: time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC),
		Plate:   "CC-22-DD",
		Service: "Premium Completa",
		Amount:  decimal.RequireFromString("35"),
	})
	require.NoError(t, err)
	_, err = s.AppendPurchase(ctx, core.Purchase{
		OccurredAt:  time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC),
		Description: "Shampoo",
		Category:    core.CategoryProduct,
		Amount:      decimal.RequireFromString("15"),
	})
	require.NoError(t, err)
	return s
}

func TestSyncAllPublishesEachActiveMonth(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewSyncWorker(seedLedger(t), pub, time.Minute)

	require.NoError(t, w.SyncAll(context.Background()))
	require.Len(t, pub.summaries, 2)

	march := pub.summaries[0]
	assert.Equal(t, core.Period{Year: 2026, Month: time.March}, march.Period)
	assert.Equal(t, "10.00", core.FormatAmount(march.Profit))

	april := pub.summaries[1]
	assert.Equal(t, core.Period{Year: 2026, Month: time.April}, april.Period)
	assert.Equal(t, "35.00", core.FormatAmount(april.Profit))
}

func TestSyncAllEmptyLedgerPublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewSyncWorker(memory.New(), pub, time.Minute)

	require.NoError(t, w.SyncAll(context.Background()))
	assert.Empty(t, pub.summaries)
}

func TestSyncAllContinuesPastFailedPeriod(t *testing.T) {
	pub := &recordingPublisher{
		fail: map[core.Period]error{
			{Year: 2026, Month: time.March}: errors.New("quota exceeded"),
		},
	}
	w := NewSyncWorker(seedLedger(t), pub, time.Minute)

	err := w.SyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2026-03")

	// April still went out despite the March failure.
	require.Len(t, pub.summaries, 1)
	assert.Equal(t, core.Period{Year: 2026, Month: time.April}, pub.summaries[0].Period)
}

func TestSyncAllIsIdempotent(t *testing.T) {
	pub := &recordingPublisher{}
	w := NewSyncWorker(seedLedger(t), pub, time.Minute)
	ctx := context.Background()

	require.NoError(t, w.SyncAll(ctx))
	require.NoError(t, w.SyncAll(ctx))
	require.Len(t, pub.summaries, 4)
	assert.Equal(t, pub.summaries[0], pub.summaries[2])
	assert.Equal(t, pub.summaries[1], pub.summaries[3])
}

func TestHandleChangeCoalescesBursts(t *testing.T) {
	w := NewSyncWorker(memory.New(), &recordingPublisher{}, time.Minute)
	ctx := context.Background()

	msg := &amqp.ChangeMessage{Stream: store.StreamWashes, Op: store.OpAppend, ID: "wash:1"}
	for i := 0; i < 5; i++ {
		require.NoError(t, w.HandleChange(ctx, msg))
	}

	// A burst collapses into a single pending signal.
	select {
	case <-w.dirty:
	default:
		t.Fatal("expected a pending sync signal")
	}
	select {
	case <-w.dirty:
		t.Fatal("expected at most one pending sync signal")
	default:
	}
}
