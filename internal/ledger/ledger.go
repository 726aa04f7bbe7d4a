// Package ledger owns the transaction store and serializes every command
// that reads or mutates it.
package ledger

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/engine"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/storage"
	"golang.org/x/sync/semaphore"
)

// Ledger is the single owner of the store. Commands hold its lock for their
// whole duration, so a sync never interleaves with an import or a rule save.
type Ledger struct {
	store  service.Storage
	syncer *engine.Syncer
	lock   *semaphore.Weighted
}

// New wraps an already migrated store.
func New(store service.Storage) *Ledger {
	return &Ledger{
		store:  store,
		syncer: engine.NewSyncer(store),
		lock:   semaphore.NewWeighted(1),
	}
}

// Open opens the SQLite database at dbPath, applies migrations and returns a ledger over it.
func Open(ctx context.Context, dbPath string) (*Ledger, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return New(store), nil
}

// Close releases the store once any running command has finished.
func (l *Ledger) Close() error {
	if err := l.lock.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer l.lock.Release(1)
	return l.store.Close()
}

// acquire waits for exclusive access. The returned release must be deferred.
func (l *Ledger) acquire(ctx context.Context) (func(), error) {
	if err := l.lock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for ledger: %w", err)
	}
	return func() { l.lock.Release(1) }, nil
}

// Sync runs the maintenance pass. Once the lock is held the pass is not
// interrupted by ctx.
func (l *Ledger) Sync(ctx context.Context) (model.SyncResult, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return model.SyncResult{}, err
	}
	defer release()

	return l.syncer.Sync(ctx)
}

// ImportOperations stores a batch of imported records as pending operations.
func (l *Ledger) ImportOperations(ctx context.Context, source string, records []model.ImportRecord) (*model.ImportResult, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := l.store.InsertOperations(ctx, source, records)
	if err != nil {
		return nil, err
	}

	common.LogInfo("Imported operations", common.Fields{
		"source":   source,
		"batch_id": result.BatchID,
		"count":    len(result.IDs),
	})

	return result, nil
}

// ListOperations returns operations matching filter in identifier order.
func (l *Ledger) ListOperations(ctx context.Context, filter service.OperationFilter) ([]model.Operation, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return l.store.ListOperations(ctx, filter)
}

// ConfirmOperation marks a pending operation as reviewed. Duplicates cannot be
// confirmed; confirming a confirmed operation is a no-op.
func (l *Ledger) ConfirmOperation(ctx context.Context, id int64) (*model.Operation, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	op, err := l.store.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}

	switch op.Status {
	case model.StatusConfirmed:
		return op, nil
	case model.StatusDuplicate:
		return nil, fmt.Errorf("operation %d is a duplicate: %w", id, common.ErrInvalidStatus)
	}

	if err := l.store.UpdateOperationStatuses(ctx, map[int64]model.OperationStatus{id: model.StatusConfirmed}); err != nil {
		return nil, err
	}

	op.Status = model.StatusConfirmed
	return op, nil
}

// ListTagRules returns all tag rules in priority order.
func (l *Ledger) ListTagRules(ctx context.Context) ([]model.TagRule, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return l.store.ListTagRules(ctx)
}

// SaveTagRule creates or replaces a tag rule.
func (l *Ledger) SaveTagRule(ctx context.Context, rule *model.TagRule) error {
	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return l.store.SaveTagRule(ctx, rule)
}

// ListTags returns all tags.
func (l *Ledger) ListTags(ctx context.Context) ([]model.Tag, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return l.store.ListTags(ctx)
}

// SaveTag creates or renames a tag.
func (l *Ledger) SaveTag(ctx context.Context, tag *model.Tag) error {
	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return l.store.SaveTag(ctx, tag)
}

// ListBankAccounts returns all bank accounts.
func (l *Ledger) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return l.store.ListBankAccounts(ctx)
}

// SaveBankAccount creates or updates a bank account.
func (l *Ledger) SaveBankAccount(ctx context.Context, account *model.BankAccount) error {
	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return l.store.SaveBankAccount(ctx, account)
}
