package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tkscraper/pkg/crawler"
)

// ProgressDisplay is the single-line crawl progress used when the
// dashboard is off
type ProgressDisplay struct {
	mu          sync.Mutex
	keyword     string
	target      int
	runID       string
	startTime   time.Time
	stats       crawler.Summary
	delivered   int
	failed      int
	lastCreator string
	isDebug     bool
}

// NewProgressDisplay creates a display for a keyword and creator target
func NewProgressDisplay(keyword string, target int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		keyword:   keyword,
		target:    target,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

// RunStarted resets the per-run counters and prints a header
func (p *ProgressDisplay) RunStarted(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.runID = runID
	p.startTime = time.Now()
	p.stats = crawler.Summary{}
	p.delivered = 0
	p.failed = 0
	p.lastCreator = ""

	printf("\n%s Run %s • searching %s for %d creators\n",
		Magenta("→"), Dim(runID), Cyan(p.keyword), p.target)
}

// Sink wraps next and reports each delivered record
func (p *ProgressDisplay) Sink(next crawler.Sink) crawler.Sink {
	return crawler.SinkFunc(func(ctx context.Context, record *crawler.ProcessedRecord) error {
		err := next.Push(ctx, record)
		p.recordDone(record, err)
		return err
	})
}

func (p *ProgressDisplay) recordDone(record *crawler.ProcessedRecord, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.failed++
	} else {
		p.delivered++
	}
	p.lastCreator = record.Author.UniqueID

	if !p.isDebug {
		p.printProgress()
		return
	}

	if err != nil {
		printf("\n%s @%s %s - %v\n", Red("✗"), record.Author.UniqueID, record.ID, err)
		return
	}
	printf("\n%s @%s %s • %s • %s\n",
		Green("✓"),
		record.Author.UniqueID,
		record.ID,
		Dim(fmt.Sprintf("%.2f%% engagement", record.EngagementRate)),
		Dim(fmt.Sprintf("%d comments", len(record.Comments))),
	)
}

// Track refreshes the counters every interval until ctx is done
func (p *ProgressDisplay) Track(ctx context.Context, stats *crawler.Stats, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.update(stats.Snapshot(), false)
			return
		case <-ticker.C:
			p.update(stats.Snapshot(), !p.isDebug)
		}
	}
}

func (p *ProgressDisplay) update(s crawler.Summary, redraw bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = s
	if redraw {
		p.printProgress()
	}
}

func (p *ProgressDisplay) printProgress() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.delivered) / elapsed.Minutes()
	}

	barWidth := 20
	filled := 0
	if p.target > 0 {
		filled = min(int(p.stats.Dispatched)*barWidth/p.target, barWidth)
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s [%s] %d/%d creators • %d delivered • %.1f/min • %s",
		Cyan(p.keyword),
		bar,
		p.stats.Dispatched,
		p.target,
		p.delivered,
		rate,
		formatDuration(elapsed),
	)
	if p.lastCreator != "" {
		line += fmt.Sprintf(" • @%s", p.lastCreator)
	}
	if p.failed > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.failed)))
	}

	printf("\r%s\r%s", strings.Repeat(" ", 120), line)
}

// RunFinished prints the run summary and when the next run starts
func (p *ProgressDisplay) RunFinished(err error, next time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	printf("\n")
	if err != nil {
		PrintError("Run failed", err)
	}
	PrintSummary(p.stats, time.Since(p.startTime))
	if !next.IsZero() {
		printf("  %s next run in %s\n", Dim("•"), formatDuration(time.Until(next)))
	}
}

// PrintSummary prints the counters of a finished run
func PrintSummary(s crawler.Summary, elapsed time.Duration) {
	printf("\n%s Processed %d creators in %s\n", Green("✓"), s.Dispatched, formatDuration(elapsed))
	printf("  %s %d records • %d comments • %d replies\n", Dim("•"), s.Records, s.Comments, s.Replies)
	printf("  %s %d search pages • %d reply fetches\n", Dim("•"), s.Pages, s.ReplyFetches)
	if s.Discarded > 0 {
		printf("  %s %d creators over the limit discarded\n", Dim("•"), s.Discarded)
	}
	if s.ProfileMisses > 0 {
		printf("  %s %d profiles not enriched\n", Dim("•"), s.ProfileMisses)
	}
	if failed := s.ItemFailures + s.Malformed + s.SinkFailures; failed > 0 {
		printf("  %s %s\n", Dim("•"), Red(fmt.Sprintf("%d items failed (%d malformed, %d not delivered)",
			failed, s.Malformed, s.SinkFailures)))
	}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
