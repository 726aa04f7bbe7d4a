// Package importer turns bank export files into import records.
package importer

import (
	"fmt"
	"math/big"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Import sources recorded on operations.
const (
	SourceOFX = "ofx"
	SourceCSV = "csv"
	SourceAPI = "api"
)

// SkippedRow describes an input entry that could not be converted.
type SkippedRow struct {
	Err  error
	Line int
}

func (s SkippedRow) String() string {
	return fmt.Sprintf("entry %d: %v", s.Line, s.Err)
}

// Result holds the records parsed from one file.
type Result struct {
	Records []model.ImportRecord
	Skipped []SkippedRow
}

// calendarDay keeps the day of t as seen in t's own location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var hundred = big.NewRat(100, 1)

// minorUnits converts an exact decimal amount to cents. Amounts with
// sub-cent precision are rejected.
func minorUnits(amount *big.Rat) (int64, error) {
	cents := new(big.Rat).Mul(amount, hundred)
	if !cents.IsInt() || !cents.Num().IsInt64() {
		return 0, fmt.Errorf("%w: %s", common.ErrInvalidAmount, amount.FloatString(4))
	}
	return cents.Num().Int64(), nil
}
