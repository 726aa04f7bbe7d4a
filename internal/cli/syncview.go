package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SyncFunc runs one sync.
type SyncFunc func(ctx context.Context) (model.SyncResult, error)

type syncDoneMsg struct {
	err    error
	result model.SyncResult
}

// SyncModel shows a spinner while a sync runs in the background. It only
// reports start and finish.
type SyncModel struct {
	ctx         context.Context
	err         error
	run         SyncFunc
	spinner     spinner.Model
	result      model.SyncResult
	done        bool
	interrupted bool
}

// NewSyncModel creates the spinner view for run.
func NewSyncModel(ctx context.Context, run SyncFunc) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return SyncModel{
		ctx:     ctx,
		run:     run,
		spinner: s,
	}
}

// Init starts the spinner and the sync.
func (m SyncModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startSync())
}

func (m SyncModel) startSync() tea.Cmd {
	return func() tea.Msg {
		result, err := m.run(m.ctx)
		return syncDoneMsg{result: result, err: err}
	}
}

// Update handles messages.
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncDoneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		// A running sync always finishes; note the request and keep waiting.
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the spinner line.
func (m SyncModel) View() string {
	if m.done {
		return ""
	}
	line := fmt.Sprintf("%s Syncing operations...", m.spinner.View())
	if m.interrupted {
		line += SubtleStyle.Render(" (finishing, sync cannot be interrupted)")
	}
	return line + "\n"
}

// Result returns the sync outcome once the model has finished.
func (m SyncModel) Result() (model.SyncResult, error) {
	return m.result, m.err
}

// RunSync runs the sync behind a spinner when w is a terminal and directly otherwise.
func RunSync(ctx context.Context, w io.Writer, run SyncFunc) (model.SyncResult, error) {
	if !IsTerminal(w) {
		return run(ctx)
	}

	program := tea.NewProgram(NewSyncModel(ctx, run), tea.WithOutput(w), tea.WithoutSignalHandler())
	final, err := program.Run()
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("sync view failed: %w", err)
	}

	syncModel, ok := final.(SyncModel)
	if !ok {
		return model.SyncResult{}, fmt.Errorf("unexpected sync view model %T", final)
	}
	return syncModel.Result()
}
