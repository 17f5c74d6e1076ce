// Package crawler implements the hierarchical extraction pipeline: search
// pages fan out to per-video processing, which enriches the creator from
// their profile page, computes engagement, walks up to a capped number of
// comments with their replies, and hands one ProcessedRecord to a Sink.
//
// Pagination never retries. A failed page ends its sequence exactly like
// an empty page, and a failed video is dropped without affecting the rest
// of its page. Nothing is cached between runs.
//
//	pool := workerpool.New(cfg.Crawl.Workers, log)
//	pool.Start()
//	defer pool.Stop()
//
//	orch := crawler.New(client, sink, pool, cfg.Crawl, log)
//	summary, err := orch.Run(ctx, cfg.SearchKeyword(), cfg.Crawl.MaxInfluencers)
package crawler
