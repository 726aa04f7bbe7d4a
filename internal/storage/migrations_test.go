package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_FreshDatabase(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	version, dirty, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, store.Migrate(ctx))

	version, dirty, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(ExpectedSchemaVersion), version)
	assert.False(t, dirty)
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))

	// The shared connection must survive repeated migrations.
	_, err := store.ListTags(ctx)
	require.NoError(t, err)
}

func TestMigrate_TablesExist(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, table := range []string{"bank_accounts", "tags", "operations", "operation_tag", "tag_rules", "tag_rule_tag"} {
		var name string
		err := store.db.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}
