package crawler

import (
	"context"

	"tkscraper/pkg/logger"
)

const (
	// DefaultCommentPageSize is the limit sent with each comment page
	DefaultCommentPageSize = 20
	// DefaultMaxComments caps the comments collected for one video
	DefaultMaxComments = 100
)

// CommentPaginator collects the comment tree of one video
type CommentPaginator struct {
	fetcher     CommentFetcher
	replies     *ReplyPaginator
	pageSize    int
	maxComments int
	logger      logger.Logger
	stats       *Stats
}

// NewCommentPaginator creates a CommentPaginator. Non-positive sizes fall
// back to the defaults.
func NewCommentPaginator(fetcher CommentFetcher, replies *ReplyPaginator, pageSize, maxComments int, stats *Stats, log logger.Logger) *CommentPaginator {
	if pageSize <= 0 {
		pageSize = DefaultCommentPageSize
	}
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &CommentPaginator{
		fetcher:     fetcher,
		replies:     replies,
		pageSize:    pageSize,
		maxComments: maxComments,
		logger:      logger.OrNop(log).WithField("component", "comment_paginator"),
		stats:       stats,
	}
}

// Paginate returns at most maxComments comments for videoID, each with its
// replies resolved. A failed page ends pagination the same way an empty
// page does.
func (p *CommentPaginator) Paginate(ctx context.Context, videoID, creatorUniqueID string) []Comment {
	log := p.logger.WithField("video_id", videoID)
	comments := []Comment{}

	for cursor := 0; len(comments) < p.maxComments; cursor += p.pageSize {
		if ctx.Err() != nil {
			break
		}

		page, err := p.fetcher.Comments(ctx, videoID, cursor, p.pageSize)
		if err != nil {
			log.WithError(err).WarnWithFields("Comment page failed, treating as end of comments", map[string]interface{}{
				"cursor":  cursor,
				"fetched": len(comments),
			})
			break
		}
		if len(page.Comments) == 0 {
			break
		}

		batch := page.Comments
		if remaining := p.maxComments - len(comments); len(batch) > remaining {
			batch = batch[:remaining]
		}

		for _, raw := range batch {
			c := newComment(raw, creatorUniqueID)
			c.Replies = p.replies.Resolve(ctx, videoID, raw, creatorUniqueID)
			comments = append(comments, c)
		}
	}

	p.stats.Comments.Add(int64(len(comments)))
	log.DebugWithFields("Comments collected", map[string]interface{}{
		"count": len(comments),
	})
	return comments
}
