package engine

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// OperationStore is the slice of the transaction store a maintenance pass reads and writes.
type OperationStore interface {
	ListOperations(ctx context.Context, filter service.OperationFilter) ([]model.Operation, error)
	UpdateOperationStatuses(ctx context.Context, statuses map[int64]model.OperationStatus) error
	AddOperationTags(ctx context.Context, additions map[int64][]int64) error
}

// RuleStore provides the tag rules in priority order.
type RuleStore interface {
	ListTagRules(ctx context.Context) ([]model.TagRule, error)
}

// SyncStore is everything a full sync needs.
type SyncStore interface {
	OperationStore
	RuleStore
}
