package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/fingerprint"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func createTestAccount(t *testing.T, store *SQLiteStorage, name string) int64 {
	t.Helper()
	account := &model.BankAccount{Name: name, Currency: "usd"}
	require.NoError(t, store.SaveBankAccount(context.Background(), account))
	return account.ID
}

func createTestTag(t *testing.T, store *SQLiteStorage, name string) int64 {
	t.Helper()
	tag := &model.Tag{Name: name}
	require.NoError(t, store.SaveTag(context.Background(), tag))
	return tag.ID
}

func createTestRecords(accountID int64, count int) []model.ImportRecord {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	records := make([]model.ImportRecord, count)
	for i := range records {
		records[i] = model.ImportRecord{
			BankAccountID: accountID,
			Date:          base.AddDate(0, 0, i),
			AmountMinor:   int64(-(i + 1) * 1050),
			Label:         "Merchant #" + string(rune('A'+i)),
		}
	}
	return records
}

func TestSQLiteStorage_InsertOperations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	accountID := createTestAccount(t, store, "Checking")
	records := createTestRecords(accountID, 3)

	result, err := store.InsertOperations(ctx, "ofx", records)
	require.NoError(t, err)
	require.Len(t, result.IDs, 3)
	assert.NotEmpty(t, result.BatchID)
	assert.Less(t, result.IDs[0], result.IDs[1])
	assert.Less(t, result.IDs[1], result.IDs[2])

	ops, err := store.ListOperations(ctx, service.OperationFilter{})
	require.NoError(t, err)
	require.Len(t, ops, 3)

	for i, op := range ops {
		assert.Equal(t, result.IDs[i], op.ID)
		assert.Equal(t, model.StatusPending, op.Status)
		assert.Equal(t, records[i].Label, op.Label)
		assert.Equal(t, records[i].AmountMinor, op.AmountMinor)
		assert.True(t, records[i].Date.Equal(op.Date))
		assert.Equal(t, string(fingerprint.OfRecord(records[i])), op.Fingerprint)
		assert.Equal(t, "ofx", op.Source)
		assert.Equal(t, result.BatchID, op.ImportBatch)
		assert.Empty(t, op.TagIDs)
		assert.NoError(t, op.DecodeErr)
	}
}

func TestSQLiteStorage_InsertOperations_Errors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.InsertOperations(ctx, "csv", nil)
	assert.ErrorIs(t, err, common.ErrNoRecords)

	_, err = store.InsertOperations(ctx, "csv", createTestRecords(99, 1))
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	ops, err := store.ListOperations(ctx, service.OperationFilter{})
	require.NoError(t, err)
	assert.Empty(t, ops, "failed batch must not leave partial rows")
}

func TestSQLiteStorage_ListOperations_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	checking := createTestAccount(t, store, "Checking")
	savings := createTestAccount(t, store, "Savings")

	_, err := store.InsertOperations(ctx, "csv", createTestRecords(checking, 4))
	require.NoError(t, err)
	_, err = store.InsertOperations(ctx, "csv", createTestRecords(savings, 2))
	require.NoError(t, err)

	all, err := store.ListOperations(ctx, service.OperationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 6)

	require.NoError(t, store.UpdateOperationStatuses(ctx, map[int64]model.OperationStatus{
		all[1].ID: model.StatusDuplicate,
	}))

	start := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter service.OperationFilter
		want   int
	}{
		{name: "by account", filter: service.OperationFilter{BankAccountID: savings}, want: 2},
		{name: "by status", filter: service.OperationFilter{Status: model.StatusDuplicate}, want: 1},
		{name: "by date range", filter: service.OperationFilter{StartDate: &start, EndDate: &end}, want: 3},
		{name: "with limit", filter: service.OperationFilter{Limit: 3}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := store.ListOperations(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, ops, tt.want)
		})
	}
}

func TestSQLiteStorage_GetOperation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	accountID := createTestAccount(t, store, "Checking")
	result, err := store.InsertOperations(ctx, "ofx", createTestRecords(accountID, 1))
	require.NoError(t, err)

	op, err := store.GetOperation(ctx, result.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, result.IDs[0], op.ID)

	_, err = store.GetOperation(ctx, 12345)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSQLiteStorage_MalformedRowsDecodeLazily(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	accountID := createTestAccount(t, store, "Checking")
	result, err := store.InsertOperations(ctx, "csv", createTestRecords(accountID, 3))
	require.NoError(t, err)

	_, err = store.db.ExecContext(ctx, "UPDATE operations SET operation_date = 'not-a-date' WHERE id = ?", result.IDs[0])
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, "UPDATE operations SET amount_in_cents = 'abc' WHERE id = ?", result.IDs[1])
	require.NoError(t, err)

	ops, err := store.ListOperations(ctx, service.OperationFilter{})
	require.NoError(t, err, "one bad row must not fail the listing")
	require.Len(t, ops, 3)

	assert.ErrorIs(t, ops[0].DecodeErr, common.ErrInvalidDate)
	assert.ErrorIs(t, ops[1].DecodeErr, common.ErrInvalidAmount)
	assert.NoError(t, ops[2].DecodeErr)
}

func TestSQLiteStorage_UpdateOperationStatuses(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	accountID := createTestAccount(t, store, "Checking")
	result, err := store.InsertOperations(ctx, "csv", createTestRecords(accountID, 2))
	require.NoError(t, err)

	err = store.UpdateOperationStatuses(ctx, map[int64]model.OperationStatus{
		result.IDs[0]: model.StatusConfirmed,
		result.IDs[1]: model.StatusDuplicate,
	})
	require.NoError(t, err)

	first, err := store.GetOperation(ctx, result.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, first.Status)

	second, err := store.GetOperation(ctx, result.IDs[1])
	require.NoError(t, err)
	assert.Equal(t, model.StatusDuplicate, second.Status)

	err = store.UpdateOperationStatuses(ctx, map[int64]model.OperationStatus{result.IDs[0]: "archived"})
	assert.ErrorIs(t, err, common.ErrInvalidStatus)

	require.NoError(t, store.UpdateOperationStatuses(ctx, nil))
}

func TestSQLiteStorage_AddOperationTags(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	accountID := createTestAccount(t, store, "Checking")
	food := createTestTag(t, store, "Food")
	travel := createTestTag(t, store, "Travel")

	result, err := store.InsertOperations(ctx, "csv", createTestRecords(accountID, 2))
	require.NoError(t, err)

	require.NoError(t, store.AddOperationTags(ctx, map[int64][]int64{
		result.IDs[0]: {travel, food},
	}))
	// Re-adding is a no-op.
	require.NoError(t, store.AddOperationTags(ctx, map[int64][]int64{
		result.IDs[0]: {food},
	}))

	op, err := store.GetOperation(ctx, result.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{food, travel}, op.TagIDs)

	untouched, err := store.GetOperation(ctx, result.IDs[1])
	require.NoError(t, err)
	assert.Empty(t, untouched.TagIDs)
}

func TestSQLiteStorage_Tags(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tag := &model.Tag{Name: "  Groceries "}
	require.NoError(t, store.SaveTag(ctx, tag))
	assert.Positive(t, tag.ID)
	assert.Equal(t, "Groceries", tag.Name)

	err := store.SaveTag(ctx, &model.Tag{Name: "Groceries"})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	tag.Name = "Food"
	require.NoError(t, store.SaveTag(ctx, tag))

	err = store.SaveTag(ctx, &model.Tag{ID: 999, Name: "Ghost"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Food", tags[0].Name)
}

func TestSQLiteStorage_TagRules(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	food := createTestTag(t, store, "Food")
	coffee := createTestTag(t, store, "Coffee")

	first := &model.TagRule{MatchingPattern: "starbucks", TagIDs: []int64{coffee, food, coffee}}
	require.NoError(t, store.SaveTagRule(ctx, first))
	assert.Positive(t, first.ID)
	assert.Equal(t, []int64{food, coffee}, first.TagIDs)

	second := &model.TagRule{MatchingPattern: "^CARD \\d+", Kind: model.PatternRegex}
	require.NoError(t, store.SaveTagRule(ctx, second))

	rules, err := store.ListTagRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, first.ID, rules[0].ID)
	assert.Equal(t, []int64{food, coffee}, rules[0].TagIDs)
	assert.Equal(t, model.PatternLiteral, rules[0].Kind)
	assert.Equal(t, model.PatternRegex, rules[1].Kind)
	assert.Empty(t, rules[1].TagIDs)

	// Updating replaces the tag associations.
	first.TagIDs = []int64{coffee}
	first.MatchingPattern = "STARBUCKS"
	require.NoError(t, store.SaveTagRule(ctx, first))

	rules, err = store.ListTagRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, "STARBUCKS", rules[0].MatchingPattern)
	assert.Equal(t, []int64{coffee}, rules[0].TagIDs)
}

func TestSQLiteStorage_TagRules_PatternStoredVerbatim(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cafe := createTestTag(t, store, "Cafe")

	tests := []struct {
		name    string
		pattern string
		kind    model.PatternKind
	}{
		{name: "literal with surrounding spaces", pattern: " cafe ", kind: model.PatternLiteral},
		{name: "regex with trailing space", pattern: "^CB ", kind: model.PatternRegex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &model.TagRule{MatchingPattern: tt.pattern, Kind: tt.kind, TagIDs: []int64{cafe}}
			require.NoError(t, store.SaveTagRule(ctx, rule))
			assert.Equal(t, tt.pattern, rule.MatchingPattern)

			rules, err := store.ListTagRules(ctx)
			require.NoError(t, err)
			var stored *model.TagRule
			for i := range rules {
				if rules[i].ID == rule.ID {
					stored = &rules[i]
				}
			}
			require.NotNil(t, stored)
			assert.Equal(t, tt.pattern, stored.MatchingPattern)
		})
	}
}

func TestSQLiteStorage_TagRules_Errors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	err := store.SaveTagRule(ctx, &model.TagRule{MatchingPattern: "x", TagIDs: []int64{42}})
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	err = store.SaveTagRule(ctx, &model.TagRule{ID: 7, MatchingPattern: "x"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	rules, err := store.ListTagRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestSQLiteStorage_BankAccounts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	account := &model.BankAccount{Name: "Checking", Slug: "chk", Currency: "eur"}
	require.NoError(t, store.SaveBankAccount(ctx, account))
	assert.Equal(t, "EUR", account.Currency)

	account.Name = "Main Checking"
	require.NoError(t, store.SaveBankAccount(ctx, account))

	err := store.SaveBankAccount(ctx, &model.BankAccount{ID: 50, Name: "Nope"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	accounts, err := store.ListBankAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Main Checking", accounts[0].Name)
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	accountID := createTestAccount(t, store, "Checking")

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.InsertOperations(ctx, "csv", createTestRecords(accountID, 2))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	ops, err := store.ListOperations(ctx, service.OperationFilter{})
	require.NoError(t, err)
	assert.Len(t, ops, 10)
}
