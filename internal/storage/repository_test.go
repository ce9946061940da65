package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavagens/internal/core"
	"lavagens/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestWashRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := core.Wash{
		OccurredAt: time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC),
		Plate:      "AA-11-BB",
		Make:       "Renault",
		Model:      "Clio",
		Customer:   "Maria",
		Service:    "Base Completa",
		Amount:     decimal.RequireFromString("25.50"),
		Recipient:  core.PartnerAFP,
	}
	id, err := repo.AppendWash(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	washes, err := repo.Washes(ctx)
	require.NoError(t, err)
	require.Len(t, washes, 1)

	got := washes[0]
	assert.Equal(t, id, got.ID)
	assert.True(t, got.OccurredAt.Equal(in.OccurredAt), "occurred_at %v != %v", got.OccurredAt, in.OccurredAt)
	assert.Equal(t, "AA-11-BB", got.Plate)
	assert.Equal(t, "Renault", got.Make)
	assert.Equal(t, "Maria", got.Customer)
	assert.True(t, got.Amount.Equal(in.Amount), "amount %s != %s", got.Amount, in.Amount)
	assert.Equal(t, core.PartnerAFP, got.Recipient)
}

func TestPurchaseAndWithdrawalRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pid, err := repo.AppendPurchase(ctx, core.Purchase{
		OccurredAt:  time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC),
		Description: "Champô auto",
		Amount:      decimal.RequireFromString("15.00"),
		Category:    core.CategoryProduct,
		Payer:       core.PartnerDinis,
	})
	require.NoError(t, err)

	wid, err := repo.AppendWithdrawal(ctx, core.Withdrawal{
		OccurredAt: time.Date(2025, time.March, 5, 18, 0, 0, 0, time.UTC),
		Amount:     decimal.RequireFromString("10.00"),
		Note:       core.DefaultWithdrawalNote,
	})
	require.NoError(t, err)

	purchases, err := repo.Purchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, pid, purchases[0].ID)
	assert.Equal(t, "Champô auto", purchases[0].Description)

	withdrawals, err := repo.Withdrawals(ctx)
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, wid, withdrawals[0].ID)
	assert.Equal(t, core.DefaultWithdrawalNote, withdrawals[0].Note)
	assert.True(t, withdrawals[0].Amount.Equal(decimal.RequireFromString("10")))
}

func TestAppendValidatesBeforeWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AppendWithdrawal(ctx, core.Withdrawal{
		OccurredAt: time.Now().UTC(),
		Amount:     decimal.Zero,
	})
	assert.ErrorIs(t, err, core.ErrNonPositiveAmount)

	withdrawals, err := repo.Withdrawals(ctx)
	require.NoError(t, err)
	assert.Empty(t, withdrawals, "rejected withdrawal must not reach the store")
}

func TestDeleteNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.DeleteWash(ctx, "123")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	err = repo.DeleteWithdrawal(ctx, "not-a-number")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDeleteNotifiesWatchers(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := repo.AppendWithdrawal(ctx, core.Withdrawal{
		OccurredAt: time.Now().UTC(),
		Amount:     decimal.NewFromInt(10),
		Note:       core.DefaultWithdrawalNote,
	})
	require.NoError(t, err)

	ch := repo.Watch(ctx)
	require.NoError(t, repo.DeleteWithdrawal(ctx, id))

	select {
	case c := <-ch:
		assert.Equal(t, store.StreamWithdrawals, c.Stream)
		assert.Equal(t, store.OpDelete, c.Op)
		assert.Equal(t, id, c.ID)
	case <-time.After(time.Second):
		t.Fatal("no change notification received")
	}
}

func TestRecordsKeepInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, plate := range []string{"AA-11-BB", "CC-22-DD", "EE-33-FF"} {
		_, err := repo.AppendWash(ctx, core.Wash{
			OccurredAt: time.Date(2025, time.March, 10-i, 0, 0, 0, 0, time.UTC),
			Plate:      plate,
			Service:    "Banhoca",
			Amount:     decimal.NewFromInt(10),
			Recipient:  core.PartnerDinis,
		})
		require.NoError(t, err)
	}

	washes, err := repo.Washes(ctx)
	require.NoError(t, err)
	require.Len(t, washes, 3)
	// Stream order is append order, not date order; the report depends on it.
	assert.Equal(t, "AA-11-BB", washes[0].Plate)
	assert.Equal(t, "EE-33-FF", washes[2].Plate)
}
