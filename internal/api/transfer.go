// Package api exposes ledger commands over a local HTTP interface and defines
// the JSON transfer forms used at that boundary.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// TagIDList is the tag identifier set of a rule on the wire. It decodes from a
// JSON array of integers, a comma-separated string or null, and always encodes
// as an array. Entries in the string form that are not positive integers are
// dropped.
type TagIDList []int64

// UnmarshalJSON implements json.Unmarshaler.
func (l *TagIDList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*l = ParseTagIDs(raw)
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return fmt.Errorf("tagsIds must be an array of integers or a comma-separated string: %w", err)
	}
	*l = normalizeIDs(ids)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l TagIDList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(l))
}

// String renders the list in its comma-separated form.
func (l TagIDList) String() string {
	parts := make([]string, len(l))
	for i, id := range l {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseTagIDs reads a comma-separated identifier list, silently dropping
// malformed, zero and negative entries.
func ParseTagIDs(raw string) TagIDList {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return normalizeIDs(ids)
}

// normalizeIDs turns ids into a sorted set.
func normalizeIDs(ids []int64) TagIDList {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make(TagIDList, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TagRulePayload is the transfer form of a tag rule.
type TagRulePayload struct {
	MatchingPattern string    `json:"matchingPattern"`
	TagIDs          TagIDList `json:"tagsIds"`
	ID              int64     `json:"id"`
	IsRegex         bool      `json:"isRegex"`
}

// ToModel converts the payload into a rule.
func (p TagRulePayload) ToModel() model.TagRule {
	rule := model.TagRule{
		ID:              p.ID,
		MatchingPattern: p.MatchingPattern,
		TagIDs:          []int64(p.TagIDs),
	}
	if p.IsRegex {
		rule.Kind = model.PatternRegex
	}
	return rule
}

// NewTagRulePayload converts a rule into its transfer form.
func NewTagRulePayload(rule model.TagRule) TagRulePayload {
	return TagRulePayload{
		ID:              rule.ID,
		MatchingPattern: rule.MatchingPattern,
		TagIDs:          normalizeIDs(rule.TagIDs),
		IsRegex:         rule.IsRegex(),
	}
}

// DecodeTagRule parses a transfer payload. Malformed input is reported as
// common.ErrInvalidRequest.
func DecodeTagRule(data []byte) (model.TagRule, error) {
	var payload TagRulePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return model.TagRule{}, fmt.Errorf("%w: %v", common.ErrInvalidRequest, err)
	}
	return payload.ToModel(), nil
}

// ImportOperationPayload is one operation submitted through the import endpoint.
type ImportOperationPayload struct {
	Date        string `json:"date"`
	Label       string `json:"label"`
	AmountMinor int64  `json:"amountInCents"`
}

// ImportPayload is the body of an import request.
type ImportPayload struct {
	Operations    []ImportOperationPayload `json:"operations"`
	BankAccountID int64                    `json:"bankAccountId"`
}

// Records converts the payload into import records.
func (p ImportPayload) Records() ([]model.ImportRecord, error) {
	records := make([]model.ImportRecord, 0, len(p.Operations))
	for i, op := range p.Operations {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(op.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: operation %d: %w", common.ErrInvalidRequest, i, common.ErrInvalidDate)
		}
		records = append(records, model.ImportRecord{
			BankAccountID: p.BankAccountID,
			Date:          date,
			AmountMinor:   op.AmountMinor,
			Label:         op.Label,
		})
	}
	return records, nil
}
