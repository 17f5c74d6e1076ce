package crawler

import "sync/atomic"

// Stats counts what a crawl run did. Safe for concurrent use.
type Stats struct {
	Pages         atomic.Int64
	Dispatched    atomic.Int64
	Discarded     atomic.Int64
	Records       atomic.Int64
	ItemFailures  atomic.Int64
	Malformed     atomic.Int64
	Comments      atomic.Int64
	Replies       atomic.Int64
	ReplyFetches  atomic.Int64
	ProfileMisses atomic.Int64
	SinkFailures  atomic.Int64
}

// Summary is a point-in-time copy of Stats
type Summary struct {
	Pages         int64 `json:"pages"`
	Dispatched    int64 `json:"dispatched"`
	Discarded     int64 `json:"discarded"`
	Records       int64 `json:"records"`
	ItemFailures  int64 `json:"item_failures"`
	Malformed     int64 `json:"malformed"`
	Comments      int64 `json:"comments"`
	Replies       int64 `json:"replies"`
	ReplyFetches  int64 `json:"reply_fetches"`
	ProfileMisses int64 `json:"profile_misses"`
	SinkFailures  int64 `json:"sink_failures"`
}

// Snapshot copies the counters
func (s *Stats) Snapshot() Summary {
	return Summary{
		Pages:         s.Pages.Load(),
		Dispatched:    s.Dispatched.Load(),
		Discarded:     s.Discarded.Load(),
		Records:       s.Records.Load(),
		ItemFailures:  s.ItemFailures.Load(),
		Malformed:     s.Malformed.Load(),
		Comments:      s.Comments.Load(),
		Replies:       s.Replies.Load(),
		ReplyFetches:  s.ReplyFetches.Load(),
		ProfileMisses: s.ProfileMisses.Load(),
		SinkFailures:  s.SinkFailures.Load(),
	}
}

// Fields renders the summary for structured logging
func (s Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"pages":          s.Pages,
		"dispatched":     s.Dispatched,
		"discarded":      s.Discarded,
		"records":        s.Records,
		"item_failures":  s.ItemFailures,
		"malformed":      s.Malformed,
		"comments":       s.Comments,
		"replies":        s.Replies,
		"reply_fetches":  s.ReplyFetches,
		"profile_misses": s.ProfileMisses,
		"sink_failures":  s.SinkFailures,
	}
}
