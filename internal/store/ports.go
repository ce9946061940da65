// Package store defines the transaction store ports the engine consumes.
// A store holds the three append-only event collections and notifies
// subscribers after every confirmed mutation; the engine recomputes from
// fresh snapshots, it never mutates store state optimistically.
package store

import (
	"context"
	"errors"

	"lavagens/internal/core"
)

// ErrNotFound is returned when a delete names an ID the store does not hold.
var ErrNotFound = errors.New("record not found")

// Stream names one of the three event collections.
type Stream string

const (
	StreamWashes      Stream = "washes"
	StreamPurchases   Stream = "purchases"
	StreamWithdrawals Stream = "withdrawals"
)

// Op is the mutation kind carried by a change notification.
type Op string

const (
	OpAppend Op = "append"
	OpDelete Op = "delete"
)

// Change describes one confirmed store mutation.
type Change struct {
	Stream Stream
	Op     Op
	ID     string
}

type (
	// WashStore is the revenue event collection.
	WashStore interface {
		// Washes returns an immutable snapshot of the full collection.
		Washes(ctx context.Context) ([]core.WashRecord, error)
		AppendWash(ctx context.Context, w core.Wash) (id string, err error)
		DeleteWash(ctx context.Context, id string) error
	}

	// PurchaseStore is the expense event collection.
	PurchaseStore interface {
		Purchases(ctx context.Context) ([]core.PurchaseRecord, error)
		AppendPurchase(ctx context.Context, p core.Purchase) (id string, err error)
		DeletePurchase(ctx context.Context, id string) error
	}

	// WithdrawalStore is the withdrawal event collection.
	WithdrawalStore interface {
		Withdrawals(ctx context.Context) ([]core.WithdrawalRecord, error)
		AppendWithdrawal(ctx context.Context, w core.Withdrawal) (id string, err error)
		DeleteWithdrawal(ctx context.Context, id string) error
	}

	// Watcher delivers change notifications. The returned channel closes
	// when ctx is done. Notifications may coalesce under load; receivers
	// recompute from a fresh snapshot either way.
	Watcher interface {
		Watch(ctx context.Context) <-chan Change
	}

	// Store is the full transaction store a backend provides.
	Store interface {
		WashStore
		PurchaseStore
		WithdrawalStore
		Watcher
	}
)
