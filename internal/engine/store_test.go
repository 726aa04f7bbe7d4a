package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory SyncStore that records write calls.
type memStore struct {
	listErr      error
	statusErr    error
	tagErr       error
	ops          map[int64]*model.Operation
	rules        []model.TagRule
	statusWrites int
	tagWrites    int
}

func newMemStore(ops ...model.Operation) *memStore {
	s := &memStore{ops: make(map[int64]*model.Operation)}
	for i := range ops {
		op := ops[i]
		if op.Status == "" {
			op.Status = model.StatusPending
		}
		s.ops[op.ID] = &op
	}
	return s
}

func (s *memStore) ListOperations(_ context.Context, _ service.OperationFilter) ([]model.Operation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.Operation, 0, len(s.ops))
	for _, op := range s.ops {
		cp := *op
		cp.TagIDs = append([]int64(nil), op.TagIDs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateOperationStatuses(_ context.Context, statuses map[int64]model.OperationStatus) error {
	if s.statusErr != nil {
		return s.statusErr
	}
	s.statusWrites++
	for id, status := range statuses {
		s.ops[id].Status = status
	}
	return nil
}

func (s *memStore) AddOperationTags(_ context.Context, additions map[int64][]int64) error {
	if s.tagErr != nil {
		return s.tagErr
	}
	s.tagWrites++
	for id, tags := range additions {
		op := s.ops[id]
		for _, tag := range tags {
			if !op.HasTag(tag) {
				op.TagIDs = append(op.TagIDs, tag)
			}
		}
		sort.Slice(op.TagIDs, func(i, j int) bool { return op.TagIDs[i] < op.TagIDs[j] })
	}
	return nil
}

func (s *memStore) ListTagRules(_ context.Context) ([]model.TagRule, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rules, nil
}

func (s *memStore) status(id int64) model.OperationStatus {
	return s.ops[id].Status
}

func (s *memStore) tags(id int64) []int64 {
	return s.ops[id].TagIDs
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func op(id int64, date time.Time, amount int64, label string) model.Operation {
	return model.Operation{
		ID:            id,
		BankAccountID: 1,
		Date:          date,
		AmountMinor:   amount,
		Label:         label,
		Status:        model.StatusPending,
	}
}
