package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/forwards-feed/internal/config"
	"github.com/rickgao/forwards-feed/internal/model"
)

func TestSQLiteTickStore_InsertAndRead(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "ticks.db"))
	require.NoError(t, err)
	defer store.Close()

	ticks := []model.Tick{
		{Symbol: "BTC-USD", Timestamp: 2000, Price: 42001},
		{Symbol: "BTC-USD", Timestamp: 1000, Price: 42000},
		{Symbol: "ETH-USD", Timestamp: 1000, Price: 2500},
	}
	n, err := store.InsertTicks(ctx, ticks)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.Ticks(ctx, "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, []model.Tick{
		{Symbol: "BTC-USD", Timestamp: 1000, Price: 42000},
		{Symbol: "BTC-USD", Timestamp: 2000, Price: 42001},
	}, got)
}

func TestSQLiteTickStore_DuplicatesIgnored(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	tick := model.Tick{Symbol: "BTC-USD", Timestamp: 1000, Price: 42000}
	n, err := store.InsertTicks(ctx, []model.Tick{tick})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.InsertTicks(ctx, []model.Tick{tick, {Symbol: "BTC-USD", Timestamp: 1001, Price: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Ticks(ctx, "BTC-USD")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteTickStore_Empty(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	n, err := store.InsertTicks(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		store, err := Open(ctx, config.ArchiveConfig{
			Driver:     DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "archive.db"),
		})
		require.NoError(t, err)
		assert.IsType(t, &SQLiteTickStore{}, store)
		assert.NoError(t, store.Close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, config.ArchiveConfig{Driver: "mysql"})
		assert.ErrorContains(t, err, `unknown archive driver "mysql"`)
	})

	t.Run("sqlite without path", func(t *testing.T) {
		_, err := Open(ctx, config.ArchiveConfig{Driver: DriverSQLite})
		assert.Error(t, err)
	})
}
