package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"tkscraper/pkg/crawler"
)

// TUI is the live crawl dashboard
type TUI struct {
	program *tea.Program
	model   *Model

	mu   sync.Mutex
	pass int
}

// NewTUI creates a dashboard for a keyword and creator target
func NewTUI(keyword string, target int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(keyword, target)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Start runs the dashboard until the user quits or Stop is called
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop quits the dashboard
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send forwards a message to the dashboard
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// RunStarted resets the dashboard for a new supervised pass
func (t *TUI) RunStarted(runID string) {
	t.mu.Lock()
	t.pass++
	pass := t.pass
	t.mu.Unlock()
	t.Send(RunStartedMsg{RunID: runID, Pass: pass})
}

// RunFinished reports a pass outcome; a zero next means no further run
func (t *TUI) RunFinished(err error, next time.Time) {
	t.Send(RunFinishedMsg{Err: err, NextRun: next})
}

// Track pushes a stats snapshot every interval until ctx is done. The
// final snapshot is sent before returning.
func (t *TUI) Track(ctx context.Context, stats *crawler.Stats, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Send(StatsMsg(stats.Snapshot()))
			return
		case <-ticker.C:
			t.Send(StatsMsg(stats.Snapshot()))
		}
	}
}

// Sink wraps next so every pushed record also shows up on the dashboard
func (t *TUI) Sink(next crawler.Sink) crawler.Sink {
	return crawler.SinkFunc(func(ctx context.Context, record *crawler.ProcessedRecord) error {
		err := next.Push(ctx, record)
		t.Send(VideoMsg(RowFromRecord(record, err)))
		return err
	})
}

// RowFromRecord summarises a record for the recent list
func RowFromRecord(record *crawler.ProcessedRecord, err error) VideoRow {
	comments := len(record.Comments)
	for _, c := range record.Comments {
		comments += len(c.Replies)
	}
	return VideoRow{
		ID:         record.ID,
		Creator:    record.Author.UniqueID,
		Engagement: record.EngagementRate,
		Comments:   comments,
		Followers:  record.Author.FollowerCount,
		Err:        err,
		At:         time.Now(),
	}
}

// Log sends a log line to the dashboard
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
