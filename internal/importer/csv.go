package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// CSVConfig describes the layout of a bank CSV export. Columns are zero-based.
type CSVConfig struct {
	DateLayout   string
	Delimiter    string
	DateColumn   int
	AmountColumn int
	LabelColumn  int
	HasHeader    bool
}

// DefaultCSVConfig returns the layout "date,amount,label" with a header row.
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{
		DateLayout:   time.DateOnly,
		Delimiter:    ",",
		DateColumn:   0,
		AmountColumn: 1,
		LabelColumn:  2,
		HasHeader:    true,
	}
}

// Validate checks the layout before any file is read.
func (c CSVConfig) Validate() error {
	if strings.TrimSpace(c.DateLayout) == "" {
		return fmt.Errorf("%w: csv date layout is empty", common.ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: csv delimiter must be a single character, got %q", common.ErrInvalidConfig, c.Delimiter)
	}
	if c.DateColumn < 0 || c.AmountColumn < 0 || c.LabelColumn < 0 {
		return fmt.Errorf("%w: csv columns must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// CSVParser reads bank CSV exports.
type CSVParser struct {
	config CSVConfig
}

// NewCSVParser creates a parser for the given layout.
func NewCSVParser(config CSVConfig) (*CSVParser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CSVParser{config: config}, nil
}

// ParseFile reads all rows and assigns them to accountID. Rows that cannot be
// parsed are skipped and reported in Result.Skipped.
func (p *CSVParser) ParseFile(ctx context.Context, reader io.Reader, accountID int64) (*Result, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma, _ = utf8.DecodeRuneInString(p.config.Delimiter)

	minCols := max(p.config.DateColumn, p.config.AmountColumn, p.config.LabelColumn) + 1

	result := &Result{}
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Err: err})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if line == 1 && p.config.HasHeader {
			continue
		}
		if isBlankRow(row) {
			continue
		}
		if len(row) < minCols {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line: line,
				Err:  fmt.Errorf("%w: expected at least %d columns, got %d", common.ErrInvalidRequest, minCols, len(row)),
			})
			continue
		}

		rec, err := p.convertRow(row, accountID)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	slog.Info("Parsed CSV file",
		"records", len(result.Records),
		"skipped", len(result.Skipped))

	return result, nil
}

func (p *CSVParser) convertRow(row []string, accountID int64) (model.ImportRecord, error) {
	rawDate := strings.TrimSpace(row[p.config.DateColumn])
	date, err := time.Parse(p.config.DateLayout, rawDate)
	if err != nil {
		return model.ImportRecord{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, rawDate)
	}

	amount, err := ParseAmount(row[p.config.AmountColumn])
	if err != nil {
		return model.ImportRecord{}, err
	}

	return model.ImportRecord{
		BankAccountID: accountID,
		Date:          calendarDay(date),
		AmountMinor:   amount,
		Label:         strings.TrimSpace(row[p.config.LabelColumn]),
	}, nil
}

// ParseAmount converts bank amount text such as "-12.50", "$1,234.00" or
// "(45.10)" into cents. Amounts finer than a cent are rejected.
func ParseAmount(raw string) (int64, error) {
	text := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	text = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '$', '€', '£', '¥':
			return -1
		}
		return r
	}, text)

	if text == "" {
		return 0, fmt.Errorf("%w: empty amount", common.ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidAmount, raw)
	}
	if negative {
		d = d.Neg()
	}

	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has sub-cent precision", common.ErrInvalidAmount, raw)
	}
	return cents.IntPart(), nil
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
