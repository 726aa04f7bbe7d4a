// Package fingerprint derives the identity hash used to recognize the same bank
// movement across imports from different sources.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key is a fixed-width (64 hex characters) operation fingerprint.
type Key string

// separator cannot appear in dates or integers. The label is the last field,
// so its content cannot shift field boundaries.
const separator = "\x1f"

// ErrUnfingerprintable is returned for operations whose date or amount could not be decoded.
var ErrUnfingerprintable = errors.New("operation cannot be fingerprinted")

// Compute returns the fingerprint of a movement. Equal inputs always give equal keys.
func Compute(accountID int64, date time.Time, amountMinor int64, label string) Key {
	data := strings.Join([]string{
		strconv.FormatInt(accountID, 10),
		date.Format(time.DateOnly),
		strconv.FormatInt(amountMinor, 10),
		NormalizeLabel(label),
	}, separator)

	sum := sha256.Sum256([]byte(data))
	return Key(hex.EncodeToString(sum[:]))
}

// NormalizeLabel composes the label to NFC, trims it, collapses internal whitespace
// and applies Unicode case folding.
func NormalizeLabel(label string) string {
	label = norm.NFC.String(label)
	label = strings.Join(strings.Fields(label), " ")
	return cases.Fold().String(label)
}

// OfOperation fingerprints a stored operation.
func OfOperation(op model.Operation) (Key, error) {
	if op.DecodeErr != nil {
		return "", fmt.Errorf("%w: operation %d: %v", ErrUnfingerprintable, op.ID, op.DecodeErr)
	}
	if op.Date.IsZero() {
		return "", fmt.Errorf("%w: operation %d: missing date", ErrUnfingerprintable, op.ID)
	}
	return Compute(op.BankAccountID, op.Date, op.AmountMinor, op.Label), nil
}

// OfRecord fingerprints an import record before insertion.
func OfRecord(rec model.ImportRecord) Key {
	return Compute(rec.BankAccountID, rec.Date, rec.AmountMinor, rec.Label)
}
