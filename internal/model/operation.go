// Package model defines the core data structures for the spice ledger.
package model

import (
	"encoding/json"
	"time"
)

// OperationStatus is the triage state of an imported operation.
type OperationStatus string

// Operation statuses.
const (
	StatusPending   OperationStatus = "pending"
	StatusConfirmed OperationStatus = "confirmed"
	StatusDuplicate OperationStatus = "duplicate"
)

// Valid reports whether s is a known status.
func (s OperationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDuplicate:
		return true
	}
	return false
}

// Operation is a single bank transaction as stored by the ledger.
type Operation struct {
	Date          time.Time       `json:"date"`
	DecodeErr     error           `json:"-"` // set when the stored date or amount could not be read
	Label         string          `json:"label"`
	Status        OperationStatus `json:"status"`
	Fingerprint   string          `json:"fingerprint"`
	Source        string          `json:"source"`
	ImportBatch   string          `json:"importBatch"`
	TagIDs        []int64         `json:"tagsIds"`
	ID            int64           `json:"id"`
	BankAccountID int64           `json:"bankAccountId"`
	AmountMinor   int64           `json:"amountInCents"`
}

// MarshalJSON encodes an untagged operation with an empty tagsIds array.
func (o Operation) MarshalJSON() ([]byte, error) {
	type plain Operation
	out := plain(o)
	if out.TagIDs == nil {
		out.TagIDs = []int64{}
	}
	return json.Marshal(out)
}

// HasTag reports whether the operation already carries tagID.
func (o *Operation) HasTag(tagID int64) bool {
	for _, id := range o.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// ImportRecord is a raw record delivered by an import adapter, before it gets an identifier.
type ImportRecord struct {
	Date          time.Time
	Label         string
	BankAccountID int64
	AmountMinor   int64
}

// ImportResult summarizes one inserted import batch.
type ImportResult struct {
	BatchID string  `json:"batchId"`
	IDs     []int64 `json:"ids"`
}
