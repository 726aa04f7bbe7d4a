package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// ListBankAccounts returns all bank accounts ordered by identifier.
func (s *SQLiteStorage) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug, currency FROM bank_accounts ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.BankAccount
	for rows.Next() {
		var account model.BankAccount
		if err := rows.Scan(&account.ID, &account.Name, &account.Slug, &account.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}

	return accounts, nil
}

// SaveBankAccount creates or updates a bank account.
func (s *SQLiteStorage) SaveBankAccount(ctx context.Context, account *model.BankAccount) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBankAccount(account); err != nil {
		return err
	}

	account.Name = strings.TrimSpace(account.Name)
	account.Slug = strings.TrimSpace(account.Slug)
	account.Currency = strings.ToUpper(strings.TrimSpace(account.Currency))

	if account.ID == 0 {
		result, err := s.db.ExecContext(ctx,
			"INSERT INTO bank_accounts (name, slug, currency) VALUES (?, ?, ?)",
			account.Name, account.Slug, account.Currency)
		if err != nil {
			return fmt.Errorf("failed to create bank account: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get bank account ID: %w", err)
		}
		account.ID = id
		return nil
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE bank_accounts SET name = ?, slug = ?, currency = ? WHERE id = ?",
		account.Name, account.Slug, account.Currency, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update bank account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("bank account %d: %w", account.ID, common.ErrNotFound)
	}
	return nil
}
