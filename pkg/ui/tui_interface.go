package ui

import (
	"context"
	"time"

	"tkscraper/pkg/crawler"
)

// RunObserver follows supervised crawl runs. Both the line display and the
// full-screen dashboard implement it.
type RunObserver interface {
	RunStarted(runID string)
	RunFinished(err error, next time.Time)
	Sink(next crawler.Sink) crawler.Sink
	Track(ctx context.Context, stats *crawler.Stats, interval time.Duration)
}
