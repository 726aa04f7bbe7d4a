package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Veraticus/spice-ledger/internal/fingerprint"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DuplicateDetector marks every operation that shares a fingerprint with an
// older one as a duplicate.
type DuplicateDetector struct{}

// NewDuplicateDetector creates a duplicate detector.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{}
}

// RefreshStatuses recomputes fingerprints from stored fields and refreshes
// statuses. Within each group the lowest id is canonical. Report.Count is the
// number of operations newly marked duplicate. A canonical operation left in the
// duplicate state by an earlier pass is restored to pending and not counted.
func (d *DuplicateDetector) RefreshStatuses(ctx context.Context, store OperationStore) (Report, error) {
	var report Report

	operations, err := store.ListOperations(ctx, service.OperationFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("failed to load operations: %w", err)
	}

	sort.Slice(operations, func(i, j int) bool { return operations[i].ID < operations[j].ID })

	// The first member seen of each group is canonical.
	canonical := make(map[fingerprint.Key]int64)
	updates := make(map[int64]model.OperationStatus)

	for _, op := range operations {
		key, err := fingerprint.OfOperation(op)
		if err != nil {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Kind:        DiagnosticMalformedOperation,
				OperationID: op.ID,
				Err:         err,
			})
			continue
		}

		if _, seen := canonical[key]; !seen {
			canonical[key] = op.ID
			if op.Status == model.StatusDuplicate {
				updates[op.ID] = model.StatusPending
			}
			continue
		}

		if op.Status != model.StatusDuplicate {
			updates[op.ID] = model.StatusDuplicate
			report.Count++
		}
	}

	if len(updates) > 0 {
		if err := store.UpdateOperationStatuses(ctx, updates); err != nil {
			return Report{}, fmt.Errorf("failed to save statuses: %w", err)
		}
	}

	slog.Debug("Duplicate statuses refreshed",
		"operations", len(operations),
		"groups", len(canonical),
		"marked", report.Count)

	return report, nil
}
