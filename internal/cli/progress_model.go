package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/zenstory/internal/cli/formatter"
	"github.com/alexanderramin/zenstory/internal/service"
)

// maxProgressLines is how much of the generation log stays on screen.
const maxProgressLines = 6

type progressMsg service.ProgressEvent

type generatedMsg struct {
	result *service.TonightResult
	err    error
}

// progressModel shows a spinner and the latest generation log lines while
// a story is written in the background.
type progressModel struct {
	spinner spinner.Model
	lines   []string
	status  string
	cancel  context.CancelFunc

	done     bool
	canceled bool
	result   *service.TonightResult
	err      error
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Moon
	s.Style = lipgloss.NewStyle().Foreground(formatter.ColorGold)
	return progressModel{spinner: s, cancel: cancel, status: "Looking up tonight's sky..."}
}

func (m progressModel) Init() tea.Cmd { return m.spinner.Tick }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case progressMsg:
		m.lines = append(m.lines, formatter.FormatProgress(service.ProgressEvent(msg)))
		if len(m.lines) > maxProgressLines {
			m.lines = m.lines[len(m.lines)-maxProgressLines:]
		}
		m.status = msg.Message
	case generatedMsg:
		m.done = true
		m.result, m.err = msg.result, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	var b strings.Builder
	for _, l := range m.lines {
		b.WriteString(l + "\n")
	}
	b.WriteString(m.spinner.View() + " " + m.status + "\n")
	b.WriteString(formatter.Dim("esc to cancel") + "\n")
	return b.String()
}
