package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavagens/internal/core"
	"lavagens/internal/store"
	"lavagens/internal/store/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []store.Change
}

func (p *recordingPublisher) PublishChange(_ context.Context, c store.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) published() []store.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]store.Change(nil), p.changes...)
}

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingPublisher) {
	t.Helper()
	st := memory.New()
	pub := &recordingPublisher{}
	svc := NewService(st, NewSelector(fixedClock(2025, time.March, 15)),
		WithPublisher(pub),
		WithClock(fixedClock(2025, time.March, 5)))
	return svc, st, pub
}

func seedMarch(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	for _, w := range []core.Wash{
		{OccurredAt: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), Plate: "AA-11-BB", Service: "Base Completa", Amount: decimal.NewFromInt(25), Recipient: core.PartnerAFP},
		{OccurredAt: time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC), Plate: "CC-22-DD", Service: "Premium Completa", Amount: decimal.NewFromInt(35), Recipient: core.PartnerAFP},
	} {
		_, err := svc.RecordWash(ctx, w)
		require.NoError(t, err)
	}
}

func TestRecordWithdrawalVisibleInNextBalance(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedMarch(t, svc)

	rec, err := svc.RecordWithdrawal(ctx, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, core.DefaultWithdrawalNote, rec.Note)
	assert.Equal(t, time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC), rec.OccurredAt)

	b, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "60.00", core.FormatAmount(b.Earned))
	assert.Equal(t, "10.00", core.FormatAmount(b.Withdrawn))
	assert.Equal(t, "50.00", core.FormatAmount(b.Outstanding))
}

func TestRecordWithdrawalRejectsNonPositive(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := svc.RecordWithdrawal(ctx, amount)
		assert.ErrorIs(t, err, core.ErrNonPositiveAmount)
	}

	// Rejected before any write: nothing stored, nothing published.
	withdrawals, err := st.Withdrawals(ctx)
	require.NoError(t, err)
	assert.Empty(t, withdrawals)
	assert.Empty(t, pub.published())
}

func TestBalanceIndependentOfSelectedMonth(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedMarch(t, svc)
	_, err := svc.RecordWithdrawal(ctx, decimal.NewFromInt(10))
	require.NoError(t, err)

	before, err := svc.Balance(ctx)
	require.NoError(t, err)

	svc.Selector().Shift(-7)
	after, err := svc.Balance(ctx)
	require.NoError(t, err)

	assert.True(t, before.Outstanding.Equal(after.Outstanding),
		"selecting another month changed the running balance: %s -> %s", before.Outstanding, after.Outstanding)
}

func TestSummaryFollowsSelectedMonth(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedMarch(t, svc)

	s, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "60.00", core.FormatAmount(s.Revenue))

	svc.Selector().Shift(1) // April: no events
	s, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, s.Revenue.IsZero())
	assert.Empty(t, s.ByService)
}

func TestDeleteWithdrawalRaisesOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedMarch(t, svc)

	rec, err := svc.RecordWithdrawal(ctx, decimal.NewFromInt(10))
	require.NoError(t, err)

	before, err := svc.Balance(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWithdrawal(ctx, rec.ID))
	after, err := svc.Balance(ctx)
	require.NoError(t, err)

	assert.True(t, after.Outstanding.Sub(before.Outstanding).Equal(decimal.NewFromInt(10)))

	err = svc.DeleteWithdrawal(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordAndDeletePublishChanges(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	id, err := svc.RecordPurchase(ctx, core.Purchase{
		OccurredAt:  time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		Description: "Produto limpeza",
		Amount:      decimal.NewFromInt(15),
		Category:    core.CategoryProduct,
		Payer:       core.PartnerDinis,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePurchase(ctx, id))

	changes := pub.published()
	require.Len(t, changes, 2)
	assert.Equal(t, store.Change{Stream: store.StreamPurchases, Op: store.OpAppend, ID: id}, changes[0])
	assert.Equal(t, store.Change{Stream: store.StreamPurchases, Op: store.OpDelete, ID: id}, changes[1])
}

func TestExpensesDoNotAffectBalance(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedMarch(t, svc)
	_, err := svc.RecordWithdrawal(ctx, decimal.NewFromInt(10))
	require.NoError(t, err)

	before, err := svc.Balance(ctx)
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, core.Purchase{
		OccurredAt:  time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		Description: "Produto limpeza",
		Amount:      decimal.NewFromInt(15),
		Category:    core.CategoryProduct,
		Payer:       core.PartnerDinis,
	})
	require.NoError(t, err)

	s, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "15.00", core.FormatAmount(s.Expense))
	assert.Equal(t, "45.00", core.FormatAmount(s.Profit))

	after, err := svc.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, before.Outstanding.Equal(after.Outstanding),
		"purchases must not change the running balance")
}
