package crawler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/tiktok"
)

func TestDecodeVideoItem(t *testing.T) {
	item, err := DecodeVideoItem(videoItem("7301", "glowqueen", 100, 10, 5, 5))
	require.NoError(t, err)

	assert.Equal(t, "7301", item.ID)
	assert.Equal(t, "glowqueen", item.Author.UniqueID)
	assert.Equal(t, int64(1700000000), item.CreateTime)
	assert.Equal(t, VideoStats{PlayCount: 100, DiggCount: 10, CommentCount: 5, ShareCount: 5}, item.Stats)
	require.Len(t, item.Hashtags, 1)
	assert.Equal(t, "kbeauty", item.Hashtags[0].HashtagName)
	assert.JSONEq(t, `{"duration":30}`, string(item.Video))
	assert.InDelta(t, 20.0, item.EngagementRate(), 1e-9)
}

func TestDecodeVideoItemMalformed(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing string
	}{
		{"not json", `[1,2`, ""},
		{"no stats", `{"id":"1","desc":"","createTime":1,"author":{"uniqueId":"a"}}`, "stats"},
		{"no author handle", `{"id":"1","desc":"","createTime":1,"author":{},"stats":{"playCount":1,"diggCount":1,"shareCount":1,"commentCount":1}}`, "author.uniqueId"},
		{"no play count", `{"id":"1","desc":"","createTime":1,"author":{"uniqueId":"a"},"stats":{"diggCount":1,"shareCount":1,"commentCount":1}}`, "stats.playCount"},
		{"no id", `{"desc":"","createTime":1,"author":{"uniqueId":"a"},"stats":{"playCount":1,"diggCount":1,"shareCount":1,"commentCount":1}}`, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeVideoItem(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeItemMalformed))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestDecodeVideoItemZeroCountersAreValid(t *testing.T) {
	item, err := DecodeVideoItem(json.RawMessage(`{"id":"9","desc":"","createTime":0,"author":{"uniqueId":"a"},"stats":{"playCount":0,"diggCount":0,"shareCount":0,"commentCount":0}}`))
	require.NoError(t, err)
	assert.Zero(t, item.EngagementRate())
	assert.NotNil(t, item.Hashtags)
}

func TestAuthorWithStats(t *testing.T) {
	base := Author{
		UniqueID:      "glowqueen",
		Nickname:      "Glow",
		FollowerCount: int64Ptr(10),
		VideoCount:    int64Ptr(3),
	}

	merged := base.WithStats(AuthorStats{
		FollowerCount: int64Ptr(2500),
		HeartCount:    int64Ptr(90000),
	})

	assert.Equal(t, int64(2500), *merged.FollowerCount, "stats override base")
	assert.Equal(t, int64(90000), *merged.HeartCount)
	assert.Equal(t, int64(3), *merged.VideoCount, "base kept where stats are silent")
	assert.Equal(t, "Glow", merged.Nickname)
	assert.Equal(t, int64(10), *base.FollowerCount, "receiver not mutated")

	assert.Equal(t, base, base.WithStats(AuthorStats{}))
	assert.True(t, AuthorStats{}.Empty())
	assert.False(t, AuthorStats{VideoCount: int64Ptr(0)}.Empty())
}

func TestNewCommentTagsCreator(t *testing.T) {
	raw := tiktok.RawComment{CID: "c1", User: tiktok.RawCommentUser{UniqueID: "glowqueen", UID: "42"}}

	assert.True(t, newComment(raw, "glowqueen").IsAuthorReply)
	assert.False(t, newComment(raw, "someoneelse").IsAuthorReply)
	assert.False(t, newComment(tiktok.RawComment{}, "").IsAuthorReply, "empty handles never match")
	assert.Equal(t, "42", newComment(raw, "x").AuthorID)
}
