package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavagens/internal/core"
	"lavagens/internal/store"
)

func testWash() core.Wash {
	return core.Wash{
		OccurredAt: time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
		Plate:      "AA-11-BB",
		Service:    "Base Completa",
		Amount:     decimal.NewFromInt(25),
		Recipient:  core.PartnerAFP,
	}
}

func TestAppendAssignsIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.AppendWash(ctx, testWash())
	require.NoError(t, err)
	id2, err := s.AppendWash(ctx, testWash())
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	washes, err := s.Washes(ctx)
	require.NoError(t, err)
	require.Len(t, washes, 2)
	assert.Equal(t, id1, washes[0].ID)
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	ctx := context.Background()

	w := testWash()
	w.Recipient = "nobody"
	_, err := s.AppendWash(ctx, w)
	assert.ErrorIs(t, err, core.ErrUnknownPartner)

	_, err = s.AppendWithdrawal(ctx, core.Withdrawal{
		OccurredAt: time.Now(),
		Amount:     decimal.Zero,
	})
	assert.ErrorIs(t, err, core.ErrNonPositiveAmount)
}

func TestDeleteRemovesAndReportsMissing(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.AppendWash(ctx, testWash())
	require.NoError(t, err)

	require.NoError(t, s.DeleteWash(ctx, id))
	washes, err := s.Washes(ctx)
	require.NoError(t, err)
	assert.Empty(t, washes)

	err = s.DeleteWash(ctx, id)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.AppendWash(ctx, testWash())
	require.NoError(t, err)

	snap, err := s.Washes(ctx)
	require.NoError(t, err)
	snap[0].Plate = "mutated"

	again, err := s.Washes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AA-11-BB", again[0].Plate)
}

func TestWatchDeliversChanges(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Watch(ctx)

	id, err := s.AppendWithdrawal(ctx, core.Withdrawal{
		OccurredAt: time.Now().UTC(),
		Amount:     decimal.NewFromInt(10),
		Note:       core.DefaultWithdrawalNote,
	})
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Equal(t, store.StreamWithdrawals, c.Stream)
		assert.Equal(t, store.OpAppend, c.Op)
		assert.Equal(t, id, c.ID)
	case <-time.After(time.Second):
		t.Fatal("no change notification received")
	}

	require.NoError(t, s.DeleteWithdrawal(ctx, id))
	select {
	case c := <-ch:
		assert.Equal(t, store.OpDelete, c.Op)
	case <-time.After(time.Second):
		t.Fatal("no delete notification received")
	}
}

func TestWatchClosesOnContextDone(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Watch(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}
