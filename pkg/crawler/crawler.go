package crawler

import (
	"tkscraper/internal/workerpool"
	"tkscraper/pkg/config"
	"tkscraper/pkg/logger"
)

// New wires the full component chain for one run: profile enrichment,
// comment and reply pagination, video processing and the search walk, all
// sharing one Stats. The pool must already be started.
func New(fetcher Fetcher, sink Sink, pool *workerpool.Pool, cfg config.CrawlConfig, log logger.Logger) *SearchOrchestrator {
	stats := &Stats{}

	replies := NewReplyPaginator(fetcher, cfg.InlineReplyThreshold, stats, log)
	comments := NewCommentPaginator(fetcher, replies, cfg.CommentPageSize, cfg.MaxComments, stats, log)
	profiles := NewProfileEnricher(fetcher, stats, log)
	processor := NewVideoProcessor(profiles, comments, sink, stats, log)

	return NewSearchOrchestrator(fetcher, processor, pool, OrchestratorOptions{
		PageSize: cfg.SearchPageSize,
		MaxPages: cfg.MaxPages,
	}, stats, log)
}
