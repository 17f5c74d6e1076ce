package crawler

import (
	"context"
	"encoding/json"

	"tkscraper/pkg/tiktok"
)

// SearchFetcher fetches one page of search results
type SearchFetcher interface {
	Search(ctx context.Context, keyword string, offset, limit int) (*tiktok.SearchResponse, error)
}

// CommentFetcher fetches one page of top-level comments
type CommentFetcher interface {
	Comments(ctx context.Context, videoID string, cursor, limit int) (*tiktok.CommentListResponse, error)
}

// ReplyFetcher fetches one page of replies under a comment
type ReplyFetcher interface {
	Replies(ctx context.Context, commentID, videoID string, cursor tiktok.Cursor) (*tiktok.CommentListResponse, error)
}

// ProfileFetcher fetches a creator's profile page
type ProfileFetcher interface {
	Profile(ctx context.Context, uniqueID string) (string, error)
}

// Fetcher is everything the crawler needs from the transport;
// *tiktok.Client satisfies it.
type Fetcher interface {
	SearchFetcher
	CommentFetcher
	ReplyFetcher
	ProfileFetcher
}

// ItemProcessor turns one raw search item into an emitted record
type ItemProcessor interface {
	Process(ctx context.Context, item json.RawMessage) error
}

// ItemProcessorFunc adapts a function to ItemProcessor
type ItemProcessorFunc func(ctx context.Context, item json.RawMessage) error

func (f ItemProcessorFunc) Process(ctx context.Context, item json.RawMessage) error {
	return f(ctx, item)
}

// Sink receives finished records
type Sink interface {
	Push(ctx context.Context, record *ProcessedRecord) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, record *ProcessedRecord) error

func (f SinkFunc) Push(ctx context.Context, record *ProcessedRecord) error {
	return f(ctx, record)
}

// MultiSink pushes each record to its sinks in order and stops at the
// first failure, so a sink only sees records every earlier sink accepted.
type MultiSink []Sink

func (m MultiSink) Push(ctx context.Context, record *ProcessedRecord) error {
	for _, s := range m {
		if err := s.Push(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
