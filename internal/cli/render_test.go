package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		want  string
		cents int64
	}{
		{cents: 0, want: "0.00"},
		{cents: 5, want: "0.05"},
		{cents: -1250, want: "-12.50"},
		{cents: 123456, want: "1234.56"},
		{cents: -7, want: "-0.07"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCents(tt.cents))
		})
	}
}

func TestTagNames(t *testing.T) {
	names := map[int64]string{1: "Coffee", 2: "Food"}
	assert.Equal(t, "Coffee, #9, Food", TagNames([]int64{1, 9, 2}, names))
	assert.Equal(t, "", TagNames(nil, names))
}

func TestRenderOperations(t *testing.T) {
	ops := []model.Operation{
		{ID: 1, Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), AmountMinor: -1250, Label: "Coffee Shop", Status: model.StatusPending, TagIDs: []int64{1}},
		{ID: 2, Label: "Broken", Status: model.StatusPending, DecodeErr: errors.New("bad date")},
	}

	out := RenderOperations(ops, map[int64]string{1: "Coffee"})
	assert.Contains(t, out, "2024-01-05")
	assert.Contains(t, out, "-12.50")
	assert.Contains(t, out, "Coffee Shop")
	assert.Contains(t, out, "????-??-??")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4, "header, border and two rows")
}

func TestRenderTagRules(t *testing.T) {
	rules := []model.TagRule{
		{ID: 1, MatchingPattern: "coffee", TagIDs: []int64{1}},
		{ID: 2, MatchingPattern: `^uber\s`, Kind: model.PatternRegex},
	}
	out := RenderTagRules(rules, map[int64]string{1: "Coffee"})
	assert.Contains(t, out, "literal")
	assert.Contains(t, out, "regex")
	assert.Contains(t, out, `^uber\s`)
}

func TestRenderSyncResult(t *testing.T) {
	out := RenderSyncResult(model.SyncResult{
		RulesApplied:        3,
		DuplicatesRefreshed: 1,
		Diagnostics:         []string{"operation 7 skipped: invalid date"},
	})
	assert.Contains(t, out, "Rules applied:        3")
	assert.Contains(t, out, "Duplicates refreshed: 1")
	assert.Contains(t, out, "operation 7 skipped")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "café…", truncate("cafébar", 5))
}
