package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/fingerprint"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/google/uuid"
)

const operationColumns = `
	o.id, o.bank_account_id, o.operation_date, o.amount_in_cents, o.details,
	o.status, o.hash, o.source, o.import_batch,
	(SELECT GROUP_CONCAT(ot.tag_id) FROM operation_tag ot WHERE ot.operation_id = o.id) AS tag_ids
`

// InsertOperations stores an import batch. Identifiers are assigned in record order
// and every operation starts as pending with its fingerprint cached.
func (s *SQLiteStorage) InsertOperations(ctx context.Context, source string, records []model.ImportRecord) (*model.ImportResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateImportRecords(records); err != nil {
		return nil, err
	}

	result := &model.ImportResult{
		BatchID: uuid.NewString(),
		IDs:     make([]int64, 0, len(records)),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureBankAccountsExist(ctx, tx, records); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO operations (
				bank_account_id, operation_date, amount_in_cents, details,
				status, hash, source, import_batch
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, rec := range records {
			res, err := stmt.ExecContext(ctx,
				rec.BankAccountID,
				rec.Date.Format(time.DateOnly),
				rec.AmountMinor,
				rec.Label,
				string(model.StatusPending),
				string(fingerprint.OfRecord(rec)),
				source,
				result.BatchID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}

			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get operation ID: %w", err)
			}
			result.IDs = append(result.IDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func ensureBankAccountsExist(ctx context.Context, q queryable, records []model.ImportRecord) error {
	seen := make(map[int64]bool)
	for _, rec := range records {
		if seen[rec.BankAccountID] {
			continue
		}
		seen[rec.BankAccountID] = true

		var count int
		err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM bank_accounts WHERE id = ?", rec.BankAccountID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to verify bank account: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: bank account %d does not exist", ErrInvalidRecord, rec.BankAccountID)
		}
	}
	return nil
}

// ListOperations returns operations in identifier order.
func (s *SQLiteStorage) ListOperations(ctx context.Context, filter service.OperationFilter) ([]model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := "SELECT" + operationColumns + "FROM operations o WHERE 1 = 1"
	var args []any

	if filter.Status != "" {
		query += " AND o.status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.BankAccountID > 0 {
		query += " AND o.bank_account_id = ?"
		args = append(args, filter.BankAccountID)
	}
	if filter.StartDate != nil {
		query += " AND o.operation_date >= ?"
		args = append(args, filter.StartDate.Format(time.DateOnly))
	}
	if filter.EndDate != nil {
		query += " AND o.operation_date <= ?"
		args = append(args, filter.EndDate.Format(time.DateOnly))
	}

	query += " ORDER BY o.id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var operations []model.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}

	return operations, nil
}

// GetOperation retrieves a single operation.
func (s *SQLiteStorage) GetOperation(ctx context.Context, id int64) (*model.Operation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT"+operationColumns+"FROM operations o WHERE o.id = ?", id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("operation %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOperation reads one row. Undecodable dates or amounts do not fail the scan;
// they are reported on the operation so a pass can skip just that record.
func scanOperation(row rowScanner) (model.Operation, error) {
	var op model.Operation
	var rawDate, rawAmount, status string
	var tagIDs sql.NullString

	err := row.Scan(
		&op.ID, &op.BankAccountID, &rawDate, &rawAmount, &op.Label,
		&status, &op.Fingerprint, &op.Source, &op.ImportBatch,
		&tagIDs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return op, err
		}
		return op, fmt.Errorf("failed to scan operation: %w", err)
	}

	op.Status = model.OperationStatus(status)
	op.TagIDs = parseIDList(tagIDs.String)

	date, dateErr := time.Parse(time.DateOnly, strings.TrimSpace(rawDate))
	amount, amountErr := strconv.ParseInt(strings.TrimSpace(rawAmount), 10, 64)
	switch {
	case dateErr != nil:
		op.DecodeErr = fmt.Errorf("%w: %q", common.ErrInvalidDate, rawDate)
	case amountErr != nil:
		op.DecodeErr = fmt.Errorf("%w: %q", common.ErrInvalidAmount, rawAmount)
	default:
		op.Date = date
		op.AmountMinor = amount
	}

	return op, nil
}

// UpdateOperationStatuses writes every status change in one transaction.
func (s *SQLiteStorage) UpdateOperationStatuses(ctx context.Context, statuses map[int64]model.OperationStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(statuses) == 0 {
		return nil
	}

	for id, status := range statuses {
		if !status.Valid() {
			return fmt.Errorf("%w: %q for operation %d", common.ErrInvalidStatus, status, id)
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "UPDATE operations SET status = ? WHERE id = ?")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, id := range sortedKeys(statuses) {
			if _, err := stmt.ExecContext(ctx, string(statuses[id]), id); err != nil {
				return fmt.Errorf("failed to update status of operation %d: %w", id, err)
			}
		}
		return nil
	})
}

// AddOperationTags unions tags into operations in one transaction.
func (s *SQLiteStorage) AddOperationTags(ctx context.Context, additions map[int64][]int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(additions) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO operation_tag (operation_id, tag_id) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, opID := range sortedKeys(additions) {
			for _, tagID := range additions[opID] {
				if _, err := stmt.ExecContext(ctx, opID, tagID); err != nil {
					return fmt.Errorf("failed to tag operation %d with tag %d: %w", opID, tagID, err)
				}
			}
		}
		return nil
	})
}

// parseIDList reads a GROUP_CONCAT list of identifiers, sorted ascending.
func parseIDList(raw string) []int64 {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
