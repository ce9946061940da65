// Package memory is an in-process transaction store used by tests and the
// default backend. Snapshots are copies; callers never see internal slices.
package memory

import (
	"context"
	"fmt"
	"sync"

	"lavagens/internal/core"
	"lavagens/internal/store"
)

type Store struct {
	store.Broadcaster

	mu          sync.Mutex
	washes      []core.WashRecord
	purchases   []core.PurchaseRecord
	withdrawals []core.WithdrawalRecord
	seq         int
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Washes(_ context.Context) ([]core.WashRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.WashRecord(nil), s.washes...), nil
}

func (s *Store) AppendWash(_ context.Context, w core.Wash) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	id := s.nextID("wash")
	s.washes = append(s.washes, core.WashRecord{ID: id, Wash: w})
	s.mu.Unlock()

	s.Notify(store.Change{Stream: store.StreamWashes, Op: store.OpAppend, ID: id})
	return id, nil
}

func (s *Store) DeleteWash(_ context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i, w := range s.washes {
		if w.ID == id {
			s.washes = append(s.washes[:i], s.washes[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("delete wash %s: %w", id, store.ErrNotFound)
	}
	s.Notify(store.Change{Stream: store.StreamWashes, Op: store.OpDelete, ID: id})
	return nil
}

func (s *Store) Purchases(_ context.Context) ([]core.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PurchaseRecord(nil), s.purchases...), nil
}

func (s *Store) AppendPurchase(_ context.Context, p core.Purchase) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	id := s.nextID("purchase")
	s.purchases = append(s.purchases, core.PurchaseRecord{ID: id, Purchase: p})
	s.mu.Unlock()

	s.Notify(store.Change{Stream: store.StreamPurchases, Op: store.OpAppend, ID: id})
	return id, nil
}

func (s *Store) DeletePurchase(_ context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i, p := range s.purchases {
		if p.ID == id {
			s.purchases = append(s.purchases[:i], s.purchases[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("delete purchase %s: %w", id, store.ErrNotFound)
	}
	s.Notify(store.Change{Stream: store.StreamPurchases, Op: store.OpDelete, ID: id})
	return nil
}

func (s *Store) Withdrawals(_ context.Context) ([]core.WithdrawalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.WithdrawalRecord(nil), s.withdrawals...), nil
}

func (s *Store) AppendWithdrawal(_ context.Context, w core.Withdrawal) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	id := s.nextID("withdrawal")
	s.withdrawals = append(s.withdrawals, core.WithdrawalRecord{ID: id, Withdrawal: w})
	s.mu.Unlock()

	s.Notify(store.Change{Stream: store.StreamWithdrawals, Op: store.OpAppend, ID: id})
	return id, nil
}

func (s *Store) DeleteWithdrawal(_ context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i, w := range s.withdrawals {
		if w.ID == id {
			s.withdrawals = append(s.withdrawals[:i], s.withdrawals[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("delete withdrawal %s: %w", id, store.ErrNotFound)
	}
	s.Notify(store.Change{Stream: store.StreamWithdrawals, Op: store.OpDelete, ID: id})
	return nil
}

// nextID must be called with s.mu held.
func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s:%d", prefix, s.seq)
}
