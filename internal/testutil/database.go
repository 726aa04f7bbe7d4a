// Package testutil provides seeded SQLite ledgers for tests that need a real store.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// TestDB is a migrated database with named fixtures.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	accounts map[string]int64
	tags     map[string]int64
}

// TestDBOptions controls what SetupTestDB seeds.
type TestDBOptions struct {
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Accounts    []string
	Tags        []string
}

// SetupTestDB creates a migrated database in a temporary directory and seeds
// the requested accounts and tags. It is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.TestDBOptions{
//		Accounts: []string{"Checking"},
//		Tags:     []string{"Coffee"},
//	})
//	db.MustInsert(db.Record("Checking", "2024-01-05", -1250, "Coffee Shop"))
func SetupTestDB(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage:  store,
		t:        t,
		accounts: make(map[string]int64),
		tags:     make(map[string]int64),
	}

	for _, name := range opts.Accounts {
		account := &model.BankAccount{Name: name, Currency: "EUR"}
		if err := store.SaveBankAccount(ctx, account); err != nil {
			t.Fatalf("failed to seed account %q: %v", name, err)
		}
		db.accounts[name] = account.ID
	}

	for _, name := range opts.Tags {
		tag := &model.Tag{Name: name}
		if err := store.SaveTag(ctx, tag); err != nil {
			t.Fatalf("failed to seed tag %q: %v", name, err)
		}
		db.tags[name] = tag.ID
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// MustAccount returns the id of a seeded account or fails the test.
func (db *TestDB) MustAccount(name string) int64 {
	db.t.Helper()
	id, ok := db.accounts[name]
	if !ok {
		db.t.Fatalf("account %q was not seeded", name)
	}
	return id
}

// MustTag returns the id of a seeded tag or fails the test.
func (db *TestDB) MustTag(name string) int64 {
	db.t.Helper()
	id, ok := db.tags[name]
	if !ok {
		db.t.Fatalf("tag %q was not seeded", name)
	}
	return id
}

// Record builds an import record for a seeded account. date is YYYY-MM-DD.
func (db *TestDB) Record(account, date string, amountMinor int64, label string) model.ImportRecord {
	db.t.Helper()
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		db.t.Fatalf("invalid fixture date %q: %v", date, err)
	}
	return model.ImportRecord{
		BankAccountID: db.MustAccount(account),
		Date:          day,
		AmountMinor:   amountMinor,
		Label:         label,
	}
}

// MustInsert stores records as one batch and returns their ids.
func (db *TestDB) MustInsert(source string, records ...model.ImportRecord) []int64 {
	db.t.Helper()
	result, err := db.Storage.InsertOperations(context.Background(), source, records)
	if err != nil {
		db.t.Fatalf("failed to insert operations: %v", err)
	}
	return result.IDs
}
