package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lavagens/internal/config"
	"lavagens/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendTypeIsValid(t *testing.T) {
	assert.True(t, MemoryBackend.IsValid())
	assert.True(t, SQLiteBackend.IsValid())
	assert.False(t, BackendType("sheets").IsValid())
	assert.False(t, BackendType("").IsValid())
}

func TestOpenMemoryBackend(t *testing.T) {
	res, err := Open(&config.Config{DataBackend: "memory"}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Store)
	assert.Nil(t, res.Cleanup)

	id, err := res.Store.AppendWash(context.Background(), core.Wash{
		OccurredAt: time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
		Plate:   "AA-11-BB",
		Service: "Banhoca",
		Amount:  decimal.RequireFromString("8"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestOpenSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	res, err := Open(&config.Config{DataBackend: "sqlite", SQLiteDBPath: dbPath}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Store)
	require.NotNil(t, res.Cleanup)
	defer func() { require.NoError(t, res.Cleanup()) }()

	washes, err := res.Store.Washes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, washes)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(&config.Config{DataBackend: "postgres"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend")
}
