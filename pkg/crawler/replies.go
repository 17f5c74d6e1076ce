package crawler

import (
	"context"

	"tkscraper/pkg/logger"
	"tkscraper/pkg/tiktok"
)

// DefaultInlineReplyThreshold is the largest reply count served from the
// comment's embedded reply list.
const DefaultInlineReplyThreshold = 4

// initialReplyCursor is the cursor of the first reply page
const initialReplyCursor tiktok.Cursor = "0"

// ReplyPaginator resolves the replies of one comment
type ReplyPaginator struct {
	fetcher         ReplyFetcher
	inlineThreshold int64
	logger          logger.Logger
	stats           *Stats
}

// NewReplyPaginator creates a ReplyPaginator. A negative threshold selects
// DefaultInlineReplyThreshold.
func NewReplyPaginator(fetcher ReplyFetcher, inlineThreshold int, stats *Stats, log logger.Logger) *ReplyPaginator {
	if inlineThreshold < 0 {
		inlineThreshold = DefaultInlineReplyThreshold
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &ReplyPaginator{
		fetcher:         fetcher,
		inlineThreshold: int64(inlineThreshold),
		logger:          logger.OrNop(log).WithField("component", "reply_paginator"),
		stats:           stats,
	}
}

// Resolve returns the replies of comment. Up to the inline threshold the
// embedded list is returned as-is with no request; above it, reply pages
// are fetched starting at cursor "0" and following the server's cursor
// until a page comes back empty. Inline and fetched replies are never mixed.
func (r *ReplyPaginator) Resolve(ctx context.Context, videoID string, comment tiktok.RawComment, creatorUniqueID string) []Reply {
	if comment.ReplyCommentTotal <= r.inlineThreshold {
		replies := make([]Reply, 0, len(comment.ReplyComment))
		for _, raw := range comment.ReplyComment {
			replies = append(replies, newComment(raw, creatorUniqueID))
		}
		r.stats.Replies.Add(int64(len(replies)))
		return replies
	}

	if comment.AwemeID != "" {
		videoID = comment.AwemeID
	}
	log := r.logger.WithFields(map[string]interface{}{
		"comment_id": comment.CID,
		"video_id":   videoID,
	})

	replies := []Reply{}
	cursor := initialReplyCursor
	for {
		if ctx.Err() != nil {
			break
		}

		r.stats.ReplyFetches.Add(1)
		page, err := r.fetcher.Replies(ctx, comment.CID, videoID, cursor)
		if err != nil {
			log.WithError(err).WarnWithFields("Reply page failed, keeping replies so far", map[string]interface{}{
				"cursor":  cursor.String(),
				"fetched": len(replies),
			})
			break
		}
		if len(page.Comments) == 0 {
			break
		}

		for _, raw := range page.Comments {
			replies = append(replies, newComment(raw, creatorUniqueID))
		}

		if page.HasMore.False() {
			break
		}
		if page.Cursor == "" || page.Cursor == cursor {
			log.DebugWithFields("Reply cursor did not advance", map[string]interface{}{
				"cursor": cursor.String(),
			})
			break
		}
		cursor = page.Cursor
	}

	r.stats.Replies.Add(int64(len(replies)))
	return replies
}
