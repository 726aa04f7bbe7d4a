package api

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Ledger is the command surface served over HTTP.
type Ledger interface {
	Sync(ctx context.Context) (model.SyncResult, error)
	ImportOperations(ctx context.Context, source string, records []model.ImportRecord) (*model.ImportResult, error)
	ListOperations(ctx context.Context, filter service.OperationFilter) ([]model.Operation, error)
	ConfirmOperation(ctx context.Context, id int64) (*model.Operation, error)
	ListTagRules(ctx context.Context) ([]model.TagRule, error)
	SaveTagRule(ctx context.Context, rule *model.TagRule) error
	ListTags(ctx context.Context) ([]model.Tag, error)
	SaveTag(ctx context.Context, tag *model.Tag) error
	ListBankAccounts(ctx context.Context) ([]model.BankAccount, error)
	SaveBankAccount(ctx context.Context, account *model.BankAccount) error
}
