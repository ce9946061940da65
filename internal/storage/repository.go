// Package storage is the SQLite-backed transaction store. Amounts persist as
// integer cents, timestamps as UTC unix seconds; both conversions live here
// and nowhere else.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"lavagens/internal/core"
	"lavagens/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	store.Broadcaster
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Washes implements store.WashStore.
func (r *Repository) Washes(ctx context.Context) ([]core.WashRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, occurred_at, plate, make, model, customer, service, amount_cents, recipient
		 FROM washes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query washes: %w", err)
	}
	defer rows.Close()

	var out []core.WashRecord
	for rows.Next() {
		var (
			id, occurredAt, cents int64
			w                     core.Wash
		)
		if err := rows.Scan(&id, &occurredAt, &w.Plate, &w.Make, &w.Model, &w.Customer, &w.Service, &cents, &w.Recipient); err != nil {
			return nil, fmt.Errorf("scan wash: %w", err)
		}
		w.OccurredAt = time.Unix(occurredAt, 0).UTC()
		w.Amount = core.FromCents(cents)
		out = append(out, core.WashRecord{ID: strconv.FormatInt(id, 10), Wash: w})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate washes: %w", err)
	}
	return out, nil
}

// AppendWash implements store.WashStore.
func (r *Repository) AppendWash(ctx context.Context, w core.Wash) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO washes (occurred_at, plate, make, model, customer, service, amount_cents, recipient)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.OccurredAt.UTC().Unix(), w.Plate, w.Make, w.Model, w.Customer, w.Service, core.Cents(w.Amount), w.Recipient)
	if err != nil {
		return "", fmt.Errorf("insert wash: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("wash insert id: %w", err)
	}

	slog.InfoContext(ctx, "Wash saved",
		"id", id,
		"plate", w.Plate,
		"service", w.Service,
		"amount_cents", core.Cents(w.Amount),
		"recipient", w.Recipient)

	ref := strconv.FormatInt(id, 10)
	r.Notify(store.Change{Stream: store.StreamWashes, Op: store.OpAppend, ID: ref})
	return ref, nil
}

// DeleteWash implements store.WashStore.
func (r *Repository) DeleteWash(ctx context.Context, id string) error {
	if err := r.deleteRow(ctx, "washes", id); err != nil {
		return err
	}
	r.Notify(store.Change{Stream: store.StreamWashes, Op: store.OpDelete, ID: id})
	return nil
}

// Purchases implements store.PurchaseStore.
func (r *Repository) Purchases(ctx context.Context) ([]core.PurchaseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, occurred_at, description, amount_cents, category, payer
		 FROM purchases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var out []core.PurchaseRecord
	for rows.Next() {
		var (
			id, occurredAt, cents int64
			p                     core.Purchase
		)
		if err := rows.Scan(&id, &occurredAt, &p.Description, &cents, &p.Category, &p.Payer); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.OccurredAt = time.Unix(occurredAt, 0).UTC()
		p.Amount = core.FromCents(cents)
		out = append(out, core.PurchaseRecord{ID: strconv.FormatInt(id, 10), Purchase: p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return out, nil
}

// AppendPurchase implements store.PurchaseStore.
func (r *Repository) AppendPurchase(ctx context.Context, p core.Purchase) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO purchases (occurred_at, description, amount_cents, category, payer)
		 VALUES (?, ?, ?, ?, ?)`,
		p.OccurredAt.UTC().Unix(), p.Description, core.Cents(p.Amount), p.Category, p.Payer)
	if err != nil {
		return "", fmt.Errorf("insert purchase: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("purchase insert id: %w", err)
	}

	slog.InfoContext(ctx, "Purchase saved",
		"id", id,
		"description", p.Description,
		"amount_cents", core.Cents(p.Amount),
		"category", p.Category,
		"payer", p.Payer)

	ref := strconv.FormatInt(id, 10)
	r.Notify(store.Change{Stream: store.StreamPurchases, Op: store.OpAppend, ID: ref})
	return ref, nil
}

// DeletePurchase implements store.PurchaseStore.
func (r *Repository) DeletePurchase(ctx context.Context, id string) error {
	if err := r.deleteRow(ctx, "purchases", id); err != nil {
		return err
	}
	r.Notify(store.Change{Stream: store.StreamPurchases, Op: store.OpDelete, ID: id})
	return nil
}

// Withdrawals implements store.WithdrawalStore.
func (r *Repository) Withdrawals(ctx context.Context) ([]core.WithdrawalRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, occurred_at, amount_cents, note FROM withdrawals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query withdrawals: %w", err)
	}
	defer rows.Close()

	var out []core.WithdrawalRecord
	for rows.Next() {
		var (
			id, occurredAt, cents int64
			w                     core.Withdrawal
		)
		if err := rows.Scan(&id, &occurredAt, &cents, &w.Note); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		w.OccurredAt = time.Unix(occurredAt, 0).UTC()
		w.Amount = core.FromCents(cents)
		out = append(out, core.WithdrawalRecord{ID: strconv.FormatInt(id, 10), Withdrawal: w})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return out, nil
}

// AppendWithdrawal implements store.WithdrawalStore.
func (r *Repository) AppendWithdrawal(ctx context.Context, w core.Withdrawal) (string, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO withdrawals (occurred_at, amount_cents, note) VALUES (?, ?, ?)`,
		w.OccurredAt.UTC().Unix(), core.Cents(w.Amount), w.Note)
	if err != nil {
		return "", fmt.Errorf("insert withdrawal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("withdrawal insert id: %w", err)
	}

	slog.InfoContext(ctx, "Withdrawal saved",
		"id", id,
		"amount_cents", core.Cents(w.Amount),
		"note", w.Note)

	ref := strconv.FormatInt(id, 10)
	r.Notify(store.Change{Stream: store.StreamWithdrawals, Op: store.OpAppend, ID: ref})
	return ref, nil
}

// DeleteWithdrawal implements store.WithdrawalStore.
func (r *Repository) DeleteWithdrawal(ctx context.Context, id string) error {
	if err := r.deleteRow(ctx, "withdrawals", id); err != nil {
		return err
	}
	r.Notify(store.Change{Stream: store.StreamWithdrawals, Op: store.OpDelete, ID: id})
	return nil
}

func (r *Repository) deleteRow(ctx context.Context, table, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("delete from %s, id %q: %w", table, id, store.ErrNotFound)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, rowID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("delete from %s, id %s: %w", table, id, store.ErrNotFound)
	}

	slog.InfoContext(ctx, "Record deleted", "table", table, "id", id)
	return nil
}
