package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"tkscraper/pkg/crawler"
)

// VideoRow is one finished video in the recent list
type VideoRow struct {
	ID         string
	Creator    string
	Engagement float64
	Comments   int
	Followers  *int64
	Err        error
	At         time.Time
}

// Failed reports whether the record could not be delivered
func (r VideoRow) Failed() bool { return r.Err != nil }

// Model is the dashboard state. It is only touched from the bubbletea
// goroutine; everything else talks to it through messages.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	keyword string
	target  int

	runID     string
	pass      int
	runStart  time.Time
	nextRunAt time.Time
	lastErr   error

	stats     crawler.Summary
	delivered int
	failed    int
	recent    []VideoRow
	maxRecent int

	logMessages    []LogMessage
	maxLogMessages int

	width    int
	height   int
	showHelp bool
}

// LogMessage is one line in the log panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates the dashboard for a keyword and creator target
func NewModel(keyword string, target int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(brandCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		spinner:        s,
		bar:            bar,
		keyword:        keyword,
		target:         target,
		runStart:       time.Now(),
		maxRecent:      12,
		maxLogMessages: 50,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartRun resets the per-run counters
func (m *Model) StartRun(runID string, pass int) {
	m.runID = runID
	m.pass = pass
	m.runStart = time.Now()
	m.nextRunAt = time.Time{}
	m.lastErr = nil
	m.stats = crawler.Summary{}
	m.delivered = 0
	m.failed = 0
	m.recent = nil
}

// FinishRun records the outcome and when the next run starts
func (m *Model) FinishRun(err error, next time.Time) {
	m.lastErr = err
	m.nextRunAt = next
}

// UpdateStats replaces the counter snapshot
func (m *Model) UpdateStats(s crawler.Summary) {
	m.stats = s
}

// AddVideo appends a finished video, keeping the newest maxRecent
func (m *Model) AddVideo(row VideoRow) {
	if row.At.IsZero() {
		row.At = time.Now()
	}
	if row.Failed() {
		m.failed++
	} else {
		m.delivered++
	}
	m.recent = append(m.recent, row)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// Progress is dispatched creators over the target, clamped to [0,1]
func (m *Model) Progress() float64 {
	if m.target <= 0 {
		return 0
	}
	p := float64(m.stats.Dispatched) / float64(m.target)
	if p > 1 {
		p = 1
	}
	return p
}

// AddLogMessage appends a log line, keeping the newest maxLogMessages
func (m *Model) AddLogMessage(level, message string) {
	color := mutedGray
	switch level {
	case "ERROR":
		color = failRed
	case "WARN":
		color = warnOrange
	case "SUCCESS":
		color = okGreen
	case "INFO":
		color = brandCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// FormatCount abbreviates large counters: 950, 12.3K, 4.1M
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
