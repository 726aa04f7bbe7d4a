// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// OperationFilter defines filtering options for operation queries.
type OperationFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Status        model.OperationStatus
	BankAccountID int64
	Limit         int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Operation operations
	InsertOperations(ctx context.Context, source string, records []model.ImportRecord) (*model.ImportResult, error)
	ListOperations(ctx context.Context, filter OperationFilter) ([]model.Operation, error)
	GetOperation(ctx context.Context, id int64) (*model.Operation, error)
	UpdateOperationStatuses(ctx context.Context, statuses map[int64]model.OperationStatus) error
	AddOperationTags(ctx context.Context, additions map[int64][]int64) error

	// Tag operations
	ListTags(ctx context.Context) ([]model.Tag, error)
	SaveTag(ctx context.Context, tag *model.Tag) error

	// Tag rule operations
	ListTagRules(ctx context.Context) ([]model.TagRule, error)
	SaveTagRule(ctx context.Context, rule *model.TagRule) error

	// Bank account operations
	ListBankAccounts(ctx context.Context) ([]model.BankAccount, error)
	SaveBankAccount(ctx context.Context, account *model.BankAccount) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
