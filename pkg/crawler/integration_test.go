package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/config"
	"tkscraper/pkg/logger"
	"tkscraper/pkg/tiktok"
)

// fakeTikTok serves the four endpoints the crawler uses
func fakeTikTok(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	hits := &sync.Map{}
	count := func(key string) {
		v, _ := hits.LoadOrStore(key, new(int))
		*(v.(*int))++
	}

	mux := http.NewServeMux()
	mux.HandleFunc(tiktok.SearchEndpoint, func(w http.ResponseWriter, r *http.Request) {
		count("search")
		assert.Equal(t, "#kbeauty", r.URL.Query().Get("keyword"))
		assert.Equal(t, "1988", r.URL.Query().Get("aid"))
		cookie, err := r.Cookie("sessionid")
		if assert.NoError(t, err) {
			assert.Equal(t, "sess", cookie.Value)
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var items []json.RawMessage
		if offset == 0 {
			items = []json.RawMessage{
				videoItem("v1", "glowqueen", 100, 10, 5, 5),
				videoItem("v2", "serumking", 200, 20, 0, 0),
				json.RawMessage(`{"id":"broken"}`),
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status_code": 0, "item_list": items, "has_more": offset == 0})
	})
	mux.HandleFunc(tiktok.CommentListEndpoint, func(w http.ResponseWriter, r *http.Request) {
		count("comments")
		if r.URL.Query().Get("cursor") != "0" {
			_, _ = fmt.Fprint(w, `{"comments":null,"has_more":0}`)
			return
		}
		_, _ = fmt.Fprintf(w, `{"comments":[
			{"cid":"c1","aweme_id":%[1]q,"text":"obsessed","user":{"unique_id":"fan"},"reply_comment_total":6,"reply_comment":[]},
			{"cid":"c2","aweme_id":%[1]q,"text":"thanks!","user":{"unique_id":"glowqueen"},"reply_comment_total":1,
			 "reply_comment":[{"cid":"c2r1","user":{"unique_id":"fan"}}]}
		],"cursor":20,"has_more":1}`, r.URL.Query().Get("aweme_id"))
	})
	mux.HandleFunc(tiktok.ReplyListEndpoint, func(w http.ResponseWriter, r *http.Request) {
		count("replies")
		switch r.URL.Query().Get("cursor") {
		case "0":
			_, _ = fmt.Fprint(w, `{"comments":[{"cid":"r1","user":{"unique_id":"glowqueen"}},{"cid":"r2","user":{"unique_id":"fan"}}],"cursor":"1700000000999","has_more":1}`)
		case "1700000000999":
			_, _ = fmt.Fprint(w, `{"comments":[{"cid":"r3","user":{"unique_id":"fan"}}],"cursor":"1700000001500","has_more":0}`)
		default:
			t.Errorf("unexpected reply cursor %q", r.URL.Query().Get("cursor"))
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		count("profile")
		if r.URL.Path == "/@glowqueen" {
			_, _ = fmt.Fprint(w, anchorPage)
			return
		}
		http.Error(w, "blocked", http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hits
}

func hitCount(hits *sync.Map, key string) int {
	v, ok := hits.Load(key)
	if !ok {
		return 0
	}
	return *(v.(*int))
}

func TestCrawlAgainstHTTPServer(t *testing.T) {
	srv, hits := fakeTikTok(t)

	cfg := config.DefaultConfig()
	cfg.TikTok.BaseURL = srv.URL
	cfg.TikTok.SessionID = "sess"
	cfg.Crawl.Keyword = "kbeauty"
	cfg.Crawl.Workers = 1

	log := logger.NewTestLogger()
	client, err := tiktok.NewClient(cfg.TikTok, log)
	require.NoError(t, err)

	sink := &recordingSink{}
	o := New(client, sink, startPool(t, cfg.Crawl.Workers), cfg.Crawl, log)

	summary, err := o.Run(context.Background(), cfg.SearchKeyword(), cfg.Crawl.MaxInfluencers)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.Dispatched)
	assert.Equal(t, int64(2), summary.Records)
	assert.Equal(t, int64(1), summary.Malformed)
	assert.Equal(t, int64(1), summary.ProfileMisses)
	assert.Equal(t, 2, hitCount(hits, "search"))
	assert.Equal(t, 2, hitCount(hits, "profile"))

	records := map[string]*ProcessedRecord{}
	for _, r := range sink.Records() {
		records[r.ID] = r
	}
	require.Contains(t, records, "v1")
	require.Contains(t, records, "v2")

	v1 := records["v1"]
	assert.InDelta(t, 20.0, v1.EngagementRate, 1e-9)
	require.NotNil(t, v1.Author.FollowerCount)
	assert.Equal(t, int64(2500), *v1.Author.FollowerCount)
	require.Len(t, v1.Comments, 2)

	paged := v1.Comments[0]
	assert.False(t, paged.IsAuthorReply)
	require.Len(t, paged.Replies, 3)
	assert.True(t, paged.Replies[0].IsAuthorReply)
	assert.Equal(t, "r3", paged.Replies[2].CID)

	inline := v1.Comments[1]
	assert.True(t, inline.IsAuthorReply)
	require.Len(t, inline.Replies, 1)
	assert.Equal(t, "c2r1", inline.Replies[0].CID)

	v2 := records["v2"]
	assert.InDelta(t, 10.0, v2.EngagementRate, 1e-9)
	assert.Nil(t, v2.Author.FollowerCount)

	assert.True(t, log.HasMessage("Profile fetch failed, continuing without enrichment"))
	assert.True(t, strings.Contains(log.String(), "Video processing failed, item dropped"))
}
