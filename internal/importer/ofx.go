package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/aclindsa/ofxgo"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	unclosedTag     = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// OFXParser reads OFX/QFX bank and credit card statements.
type OFXParser struct{}

// NewOFXParser creates a new OFX parser.
func NewOFXParser() *OFXParser {
	return &OFXParser{}
}

// preprocess fixes common formatting issues in bank exports.
func (p *OFXParser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTag.ReplaceAllString(content, "$1>")
}

func (p *OFXParser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file: %v", common.ErrInvalidRequest, err)
	}
	return resp, nil
}

// ParseFile reads every statement transaction in the file and assigns it to accountID.
func (p *OFXParser) ParseFile(ctx context.Context, reader io.Reader, accountID int64) (*Result, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	entry := 0
	var bankStmts, ccStmts int

	collect := func(list *ofxgo.TransactionList) error {
		if list == nil {
			return nil
		}
		for _, txn := range list.Transactions {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry++
			rec, err := convertTransaction(txn, accountID)
			if err != nil {
				result.Skipped = append(result.Skipped, SkippedRow{Line: entry, Err: err})
				continue
			}
			result.Records = append(result.Records, rec)
		}
		return nil
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if err := collect(stmt.BankTranList); err != nil {
				return nil, err
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if err := collect(stmt.BankTranList); err != nil {
				return nil, err
			}
		}
	}

	slog.Info("Parsed OFX file",
		"records", len(result.Records),
		"skipped", len(result.Skipped),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return result, nil
}

func convertTransaction(txn ofxgo.Transaction, accountID int64) (model.ImportRecord, error) {
	if txn.DtPosted.IsZero() {
		return model.ImportRecord{}, fmt.Errorf("%w: missing DTPOSTED", common.ErrInvalidDate)
	}

	amount, err := minorUnits(&txn.TrnAmt.Rat)
	if err != nil {
		return model.ImportRecord{}, err
	}

	return model.ImportRecord{
		BankAccountID: accountID,
		Date:          calendarDay(txn.DtPosted.Time),
		AmountMinor:   amount,
		Label:         transactionLabel(txn),
	}, nil
}

// transactionLabel prefers NAME, then the payee name, then MEMO.
func transactionLabel(txn ofxgo.Transaction) string {
	if name := strings.TrimSpace(string(txn.Name)); name != "" {
		return name
	}
	if txn.Payee != nil {
		if name := strings.TrimSpace(string(txn.Payee.Name)); name != "" {
			return name
		}
	}
	return strings.TrimSpace(string(txn.Memo))
}

// Accounts lists the distinct account numbers found in the file.
func (p *OFXParser) Accounts(reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id ofxgo.String) {
		acct := string(id)
		if acct == "" || seen[acct] {
			return
		}
		seen[acct] = true
		accounts = append(accounts, acct)
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(stmt.BankAcctFrom.AcctID)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(stmt.CCAcctFrom.AcctID)
		}
	}

	return accounts, nil
}
