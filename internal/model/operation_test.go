package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_MarshalJSON(t *testing.T) {
	base := Operation{
		ID:            3,
		BankAccountID: 1,
		Date:          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		AmountMinor:   -1250,
		Label:         "Coffee Shop",
		Status:        StatusPending,
		DecodeErr:     errors.New("not encoded"),
	}

	tests := []struct {
		name string
		tags []int64
		want string
	}{
		{name: "untagged", tags: nil, want: `[]`},
		{name: "empty", tags: []int64{}, want: `[]`},
		{name: "tagged", tags: []int64{2, 5}, want: `[2,5]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := base
			op.TagIDs = tt.tags

			data, err := json.Marshal(op)
			require.NoError(t, err)

			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &fields))
			assert.JSONEq(t, tt.want, string(fields["tagsIds"]))
			assert.JSONEq(t, `-1250`, string(fields["amountInCents"]))
			assert.NotContains(t, fields, "DecodeErr")
		})
	}
}

func TestOperation_MarshalJSONInSlice(t *testing.T) {
	data, err := json.Marshal([]Operation{{ID: 1}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tagsIds":[]`)
}
