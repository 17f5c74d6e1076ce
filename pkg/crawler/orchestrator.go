package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tkscraper/internal/workerpool"
	"tkscraper/pkg/logger"
)

// DefaultSearchPageSize is the limit sent with each search page
const DefaultSearchPageSize = 20

// OrchestratorOptions bound a search run
type OrchestratorOptions struct {
	PageSize int
	// MaxPages stops the walk after this many pages; 0 means no limit.
	MaxPages int
}

// SearchOrchestrator walks search pages and fans each page's items out to
// a worker pool, waiting for the whole page before moving on.
type SearchOrchestrator struct {
	search    SearchFetcher
	processor ItemProcessor
	pool      *workerpool.Pool
	opts      OrchestratorOptions
	logger    logger.Logger
	stats     *Stats
}

// NewSearchOrchestrator creates a SearchOrchestrator. The pool must be started.
func NewSearchOrchestrator(search SearchFetcher, processor ItemProcessor, pool *workerpool.Pool, opts OrchestratorOptions, stats *Stats, log logger.Logger) *SearchOrchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultSearchPageSize
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &SearchOrchestrator{
		search:    search,
		processor: processor,
		pool:      pool,
		opts:      opts,
		logger:    logger.OrNop(log).WithField("component", "search_orchestrator"),
		stats:     stats,
	}
}

// Stats returns the counters shared with the run's components
func (o *SearchOrchestrator) Stats() *Stats {
	return o.stats
}

// Run walks search results for keyword until maxCount creators have been
// dispatched, a page comes back empty or fails, or a page repeats only
// already-seen videos. Items past the cap on the last page are discarded.
// Records leave through the processor's sink; only a cancelled ctx is
// returned as an error.
func (o *SearchOrchestrator) Run(ctx context.Context, keyword string, maxCount int) (Summary, error) {
	start := time.Now()
	log := o.logger.WithField("keyword", keyword)
	logger.LogComponentStart(log, "search_orchestrator", map[string]interface{}{
		"max_count": maxCount,
		"page_size": o.opts.PageSize,
		"workers":   o.pool.Size(),
	})

	seen := make(map[string]struct{})
	accumulated := 0
	reason := "target reached"

	for offset, pages := 0, 0; accumulated < maxCount; offset, pages = offset+o.opts.PageSize, pages+1 {
		if err := ctx.Err(); err != nil {
			logger.LogComponentStop(log, "search_orchestrator", "cancelled")
			return o.stats.Snapshot(), err
		}
		if o.opts.MaxPages > 0 && pages >= o.opts.MaxPages {
			reason = "page limit reached"
			break
		}

		page, err := o.search.Search(ctx, keyword, offset, o.opts.PageSize)
		if err != nil {
			log.WithError(err).WarnWithFields("Search page failed, ending run", map[string]interface{}{
				"offset": offset,
			})
			reason = "search failed"
			break
		}
		o.stats.Pages.Add(1)

		if len(page.ItemList) == 0 {
			reason = "results exhausted"
			break
		}
		if !markSeen(seen, page.ItemList) {
			log.WarnWithFields("Search page repeated known videos, ending run", map[string]interface{}{
				"offset": offset,
			})
			reason = "results not advancing"
			break
		}

		items := page.ItemList
		if remaining := maxCount - accumulated; len(items) > remaining {
			o.stats.Discarded.Add(int64(len(items) - remaining))
			items = items[:remaining]
		}

		jobs := make([]workerpool.Job, len(items))
		for i, item := range items {
			item := item
			jobs[i] = workerpool.Job{
				ID:  fmt.Sprintf("%d-%d", offset, i),
				Run: func(ctx context.Context) error { return o.processor.Process(ctx, item) },
			}
		}
		o.stats.Dispatched.Add(int64(len(jobs)))

		failed := 0
		for _, res := range o.pool.Dispatch(ctx, jobs) {
			if res.Err != nil {
				failed++
			}
		}
		accumulated += len(items)

		log.DebugWithFields("Search page settled", map[string]interface{}{
			"offset": offset,
			"items":  len(items),
			"failed": failed,
		})
		logger.LogCrawlProgress(log, keyword, accumulated, maxCount)
	}

	summary := o.stats.Snapshot()
	metrics := summary.Fields()
	metrics["duration"] = time.Since(start)
	logger.LogMetrics(log, "crawl", metrics)
	logger.LogComponentStop(log, "search_orchestrator", reason)
	return summary, nil
}

// markSeen records the page's video ids and reports whether at least one
// of them was new. Items without a readable id count as new.
func markSeen(seen map[string]struct{}, items []json.RawMessage) bool {
	fresh := false
	for _, raw := range items {
		var peek struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(raw, &peek) != nil || peek.ID == "" {
			fresh = true
			continue
		}
		if _, ok := seen[peek.ID]; !ok {
			seen[peek.ID] = struct{}{}
			fresh = true
		}
	}
	return fresh
}
