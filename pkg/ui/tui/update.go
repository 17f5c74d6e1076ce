package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"tkscraper/pkg/crawler"
)

// RunStartedMsg marks the start of a supervised pass
type RunStartedMsg struct {
	RunID string
	Pass  int
}

// RunFinishedMsg reports how a pass ended and when the next one starts
type RunFinishedMsg struct {
	Err     error
	NextRun time.Time
}

// StatsMsg carries a counter snapshot of the current run
type StatsMsg crawler.Summary

// VideoMsg reports a record that reached (or failed to reach) the sink
type VideoMsg VideoRow

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg redraws elapsed times
type TickMsg time.Time

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case RunStartedMsg:
		m.StartRun(msg.RunID, msg.Pass)
		m.AddLogMessage("INFO", "Run started: "+msg.RunID)
		return m, nil

	case RunFinishedMsg:
		m.FinishRun(msg.Err, msg.NextRun)
		if msg.Err != nil {
			m.AddLogMessage("ERROR", "Run failed: "+msg.Err.Error())
		} else {
			m.AddLogMessage("SUCCESS", "Run finished")
		}
		return m, nil

	case StatsMsg:
		m.UpdateStats(crawler.Summary(msg))
		return m, nil

	case VideoMsg:
		row := VideoRow(msg)
		m.AddVideo(row)
		if row.Failed() {
			m.AddLogMessage("WARN", "Not delivered: "+row.ID+" "+row.Err.Error())
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "ctrl+l":
		m.logMessages = nil
	}
	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
