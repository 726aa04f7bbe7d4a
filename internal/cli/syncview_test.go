package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncModel_FinishesOnResult(t *testing.T) {
	m := NewSyncModel(context.Background(), nil)
	assert.Contains(t, m.View(), "Syncing operations")

	updated, cmd := m.Update(syncDoneMsg{result: model.SyncResult{RulesApplied: 2}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	final := updated.(SyncModel)
	result, err := final.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, result.RulesApplied)
	assert.Empty(t, final.View())
}

func TestSyncModel_CtrlCDoesNotQuit(t *testing.T) {
	m := NewSyncModel(context.Background(), nil)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	assert.Contains(t, updated.View(), "cannot be interrupted")
}

func TestSyncModel_StartSyncRunsFunc(t *testing.T) {
	called := false
	m := NewSyncModel(context.Background(), func(context.Context) (model.SyncResult, error) {
		called = true
		return model.SyncResult{}, errors.New("boom")
	})

	msg := m.startSync()()
	done, ok := msg.(syncDoneMsg)
	require.True(t, ok)
	assert.True(t, called)
	assert.EqualError(t, done.err, "boom")
}

func TestRunSync_NonTerminalRunsDirectly(t *testing.T) {
	var out bytes.Buffer
	result, err := RunSync(context.Background(), &out, func(context.Context) (model.SyncResult, error) {
		return model.SyncResult{DuplicatesRefreshed: 4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.DuplicatesRefreshed)
	assert.Empty(t, out.String())
}

func TestProgressReader_NonTerminalPassthrough(t *testing.T) {
	src := bytes.NewBufferString("date,amount,label\n")
	var out bytes.Buffer

	r, finish := ProgressReader(src, int64(src.Len()), &out, "Reading")
	assert.Same(t, src, r)
	finish()
	assert.Empty(t, out.String())
	assert.False(t, IsTerminal(&out))
}
