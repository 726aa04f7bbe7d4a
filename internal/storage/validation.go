// Package storage provides the data persistence layer for the spice ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidRecord      = fmt.Errorf("%w: invalid import record", common.ErrInvalidRequest)
	ErrInvalidTag         = fmt.Errorf("%w: invalid tag", common.ErrInvalidRequest)
	ErrInvalidTagRule     = fmt.Errorf("%w: invalid tag rule", common.ErrInvalidRequest)
	ErrInvalidBankAccount = fmt.Errorf("%w: invalid bank account", common.ErrInvalidRequest)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateImportRecords validates a batch before insertion.
func validateImportRecords(records []model.ImportRecord) error {
	if len(records) == 0 {
		return common.ErrNoRecords
	}

	for i, rec := range records {
		if rec.BankAccountID <= 0 {
			return fmt.Errorf("%w at index %d: missing bank account", ErrInvalidRecord, i)
		}
		if rec.Date.IsZero() {
			return fmt.Errorf("%w at index %d: missing date", ErrInvalidRecord, i)
		}
	}
	return nil
}

// validateTag validates a tag.
func validateTag(tag *model.Tag) error {
	if tag == nil {
		return fmt.Errorf("%w: tag", ErrNilParameter)
	}
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTag)
	}
	if tag.ID < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidTag)
	}
	return nil
}

// validateTagRule validates a tag rule. Regex patterns are not compiled here:
// a rule that does not compile is stored and stays inert during sync.
func validateTagRule(rule *model.TagRule) error {
	if rule == nil {
		return fmt.Errorf("%w: tag rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.MatchingPattern) == "" {
		return fmt.Errorf("%w: missing matching pattern", ErrInvalidTagRule)
	}
	if rule.ID < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidTagRule)
	}
	for _, id := range rule.TagIDs {
		if id <= 0 {
			return fmt.Errorf("%w: tag id %d", ErrInvalidTagRule, id)
		}
	}
	return nil
}

// validateBankAccount validates a bank account.
func validateBankAccount(account *model.BankAccount) error {
	if account == nil {
		return fmt.Errorf("%w: bank account", ErrNilParameter)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBankAccount)
	}
	if account.ID < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidBankAccount)
	}
	return nil
}
