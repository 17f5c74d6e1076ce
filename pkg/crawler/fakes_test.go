package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"tkscraper/pkg/tiktok"
)

// fakeFetcher serves canned pages; a nil func yields an empty page.
type fakeFetcher struct {
	searchFn   func(keyword string, offset, limit int) (*tiktok.SearchResponse, error)
	commentsFn func(videoID string, cursor, limit int) (*tiktok.CommentListResponse, error)
	repliesFn  func(commentID, videoID string, cursor tiktok.Cursor) (*tiktok.CommentListResponse, error)
	profileFn  func(uniqueID string) (string, error)

	searchCalls  atomic.Int32
	commentCalls atomic.Int32
	replyCalls   atomic.Int32
	profileCalls atomic.Int32

	mu            sync.Mutex
	replyCursors  []tiktok.Cursor
	commentCursor []int
}

func (f *fakeFetcher) Search(ctx context.Context, keyword string, offset, limit int) (*tiktok.SearchResponse, error) {
	f.searchCalls.Add(1)
	if f.searchFn == nil {
		return &tiktok.SearchResponse{}, nil
	}
	return f.searchFn(keyword, offset, limit)
}

func (f *fakeFetcher) Comments(ctx context.Context, videoID string, cursor, limit int) (*tiktok.CommentListResponse, error) {
	f.commentCalls.Add(1)
	f.mu.Lock()
	f.commentCursor = append(f.commentCursor, cursor)
	f.mu.Unlock()
	if f.commentsFn == nil {
		return &tiktok.CommentListResponse{}, nil
	}
	return f.commentsFn(videoID, cursor, limit)
}

func (f *fakeFetcher) Replies(ctx context.Context, commentID, videoID string, cursor tiktok.Cursor) (*tiktok.CommentListResponse, error) {
	f.replyCalls.Add(1)
	f.mu.Lock()
	f.replyCursors = append(f.replyCursors, cursor)
	f.mu.Unlock()
	if f.repliesFn == nil {
		return &tiktok.CommentListResponse{}, nil
	}
	return f.repliesFn(commentID, videoID, cursor)
}

func (f *fakeFetcher) Profile(ctx context.Context, uniqueID string) (string, error) {
	f.profileCalls.Add(1)
	if f.profileFn == nil {
		return "", fmt.Errorf("no profile")
	}
	return f.profileFn(uniqueID)
}

// recordingSink captures pushed records
type recordingSink struct {
	mu      sync.Mutex
	records []*ProcessedRecord
	err     error
}

func (s *recordingSink) Push(ctx context.Context, r *ProcessedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, r)
	return nil
}

func (s *recordingSink) Records() []*ProcessedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*ProcessedRecord(nil), s.records...)
}

// videoItem builds a raw search item
func videoItem(id, uniqueID string, views, likes, comments, shares int64) json.RawMessage {
	item := map[string]interface{}{
		"id":         id,
		"desc":       "glass skin routine #kbeauty",
		"createTime": 1700000000,
		"author": map[string]interface{}{
			"id":       "uid-" + uniqueID,
			"uniqueId": uniqueID,
			"nickname": "Nick " + uniqueID,
		},
		"stats": map[string]interface{}{
			"playCount":    views,
			"diggCount":    likes,
			"commentCount": comments,
			"shareCount":   shares,
		},
		"video":     map[string]interface{}{"duration": 30},
		"textExtra": []map[string]interface{}{{"hashtagName": "kbeauty"}},
	}
	data, _ := json.Marshal(item)
	return data
}

// searchPage builds a page of n items with ids prefix-0..prefix-(n-1)
func searchPage(prefix string, n int) *tiktok.SearchResponse {
	page := &tiktok.SearchResponse{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		page.ItemList = append(page.ItemList, videoItem(id, "creator_"+id, 100, 10, 5, 5))
	}
	return page
}

// rawComments builds n comments written by author
func rawComments(prefix string, n int, author string) []tiktok.RawComment {
	out := make([]tiktok.RawComment, n)
	for i := range out {
		out[i] = tiktok.RawComment{
			CID:     fmt.Sprintf("%s-%d", prefix, i),
			AwemeID: "v1",
			Text:    "love this",
			User:    tiktok.RawCommentUser{UID: "u", UniqueID: author},
		}
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }
