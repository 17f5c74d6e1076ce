package crawler

import (
	"encoding/json"
	"fmt"

	"tkscraper/pkg/errors"
	"tkscraper/pkg/tiktok"
)

// Author is a creator as seen in a search item. The counter fields are
// only present once profile enrichment found them.
type Author struct {
	ID          string `json:"id"`
	UniqueID    string `json:"uniqueId"`
	Nickname    string `json:"nickname"`
	Signature   string `json:"signature"`
	AvatarThumb string `json:"avatarThumb,omitempty"`
	SecUID      string `json:"secUid,omitempty"`
	Verified    bool   `json:"verified"`

	FollowerCount  *int64 `json:"followerCount,omitempty"`
	FollowingCount *int64 `json:"followingCount,omitempty"`
	Heart          *int64 `json:"heart,omitempty"`
	HeartCount     *int64 `json:"heartCount,omitempty"`
	VideoCount     *int64 `json:"videoCount,omitempty"`
	DiggCount      *int64 `json:"diggCount,omitempty"`
	FriendCount    *int64 `json:"friendCount,omitempty"`
}

// AuthorStats are the creator counters parsed from a profile page. Every
// field is optional; the zero value means "no enrichment".
type AuthorStats struct {
	FollowerCount  *int64 `json:"followerCount,omitempty"`
	FollowingCount *int64 `json:"followingCount,omitempty"`
	Heart          *int64 `json:"heart,omitempty"`
	HeartCount     *int64 `json:"heartCount,omitempty"`
	VideoCount     *int64 `json:"videoCount,omitempty"`
	DiggCount      *int64 `json:"diggCount,omitempty"`
	FriendCount    *int64 `json:"friendCount,omitempty"`
}

// Empty reports whether no counter is set
func (s AuthorStats) Empty() bool {
	return s == AuthorStats{}
}

// WithStats returns a copy of a where every counter present in s replaces
// the corresponding base field.
func (a Author) WithStats(s AuthorStats) Author {
	override := func(dst **int64, src *int64) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	override(&a.FollowerCount, s.FollowerCount)
	override(&a.FollowingCount, s.FollowingCount)
	override(&a.Heart, s.Heart)
	override(&a.HeartCount, s.HeartCount)
	override(&a.VideoCount, s.VideoCount)
	override(&a.DiggCount, s.DiggCount)
	override(&a.FriendCount, s.FriendCount)
	return a
}

// VideoStats are the per-video counters from a search item
type VideoStats struct {
	PlayCount    int64 `json:"playCount"`
	DiggCount    int64 `json:"diggCount"`
	ShareCount   int64 `json:"shareCount"`
	CommentCount int64 `json:"commentCount"`
	CollectCount int64 `json:"collectCount,omitempty"`
}

// Hashtag is one textExtra entry of a video description
type Hashtag struct {
	HashtagName string `json:"hashtagName"`
	HashtagID   string `json:"hashtagId,omitempty"`
	Start       int    `json:"start,omitempty"`
	End         int    `json:"end,omitempty"`
}

// VideoItem is one validated search result
type VideoItem struct {
	ID         string          `json:"id"`
	Desc       string          `json:"desc"`
	CreateTime int64           `json:"createTime"`
	Author     Author          `json:"author"`
	Stats      VideoStats      `json:"stats"`
	Video      json.RawMessage `json:"video,omitempty"`
	Hashtags   []Hashtag       `json:"textExtra,omitempty"`
}

// rawItem mirrors VideoItem with pointers so absent keys can be told apart
// from zero values.
type rawItem struct {
	ID         *string         `json:"id"`
	Desc       *string         `json:"desc"`
	CreateTime *int64          `json:"createTime"`
	Author     *Author         `json:"author"`
	Stats      *rawStats       `json:"stats"`
	Video      json.RawMessage `json:"video"`
	TextExtra  []Hashtag       `json:"textExtra"`
}

type rawStats struct {
	PlayCount    *int64 `json:"playCount"`
	DiggCount    *int64 `json:"diggCount"`
	ShareCount   *int64 `json:"shareCount"`
	CommentCount *int64 `json:"commentCount"`
	CollectCount int64  `json:"collectCount"`
}

// DecodeVideoItem parses and validates one raw search item. Missing
// required keys yield an item_malformed error.
func DecodeVideoItem(data json.RawMessage) (*VideoItem, error) {
	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeItemMalformed, err, "decode search item")
	}

	var missing []string
	check := func(ok bool, key string) {
		if !ok {
			missing = append(missing, key)
		}
	}
	check(raw.ID != nil && *raw.ID != "", "id")
	check(raw.Desc != nil, "desc")
	check(raw.CreateTime != nil, "createTime")
	check(raw.Author != nil && raw.Author.UniqueID != "", "author.uniqueId")
	if raw.Stats == nil {
		missing = append(missing, "stats")
	} else {
		check(raw.Stats.PlayCount != nil, "stats.playCount")
		check(raw.Stats.DiggCount != nil, "stats.diggCount")
		check(raw.Stats.ShareCount != nil, "stats.shareCount")
		check(raw.Stats.CommentCount != nil, "stats.commentCount")
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrorTypeItemMalformed, 0, fmt.Sprintf("search item missing %v", missing))
	}

	hashtags := raw.TextExtra
	if hashtags == nil {
		hashtags = []Hashtag{}
	}

	return &VideoItem{
		ID:         *raw.ID,
		Desc:       *raw.Desc,
		CreateTime: *raw.CreateTime,
		Author:     *raw.Author,
		Stats: VideoStats{
			PlayCount:    *raw.Stats.PlayCount,
			DiggCount:    *raw.Stats.DiggCount,
			ShareCount:   *raw.Stats.ShareCount,
			CommentCount: *raw.Stats.CommentCount,
			CollectCount: raw.Stats.CollectCount,
		},
		Video:    raw.Video,
		Hashtags: hashtags,
	}, nil
}

// EngagementRate computes the item's engagement from its counters
func (v *VideoItem) EngagementRate() float64 {
	return EngagementRate(v.Stats.DiggCount, v.Stats.CommentCount, v.Stats.ShareCount, v.Stats.PlayCount)
}

// Comment is a top-level comment with its resolved replies. Replies use
// the same shape and never carry replies of their own.
type Comment struct {
	CID            string    `json:"cid"`
	VideoID        string    `json:"aweme_id"`
	Text           string    `json:"text"`
	CreateTime     int64     `json:"create_time"`
	DiggCount      int64     `json:"digg_count"`
	AuthorID       string    `json:"author_id"`
	AuthorUniqueID string    `json:"author_unique_id"`
	AuthorNickname string    `json:"author_nickname"`
	ReplyCount     int64     `json:"reply_comment_total"`
	IsAuthorReply  bool      `json:"is_author_reply"`
	Replies        []Comment `json:"replies,omitempty"`
}

// Reply is a comment attached under a parent comment
type Reply = Comment

// newComment converts a wire comment and tags whether the video's creator wrote it
func newComment(raw tiktok.RawComment, creatorUniqueID string) Comment {
	return Comment{
		CID:            raw.CID,
		VideoID:        raw.AwemeID,
		Text:           raw.Text,
		CreateTime:     raw.CreateTime,
		DiggCount:      raw.DiggCount,
		AuthorID:       raw.User.UID,
		AuthorUniqueID: raw.User.UniqueID,
		AuthorNickname: raw.User.Nickname,
		ReplyCount:     raw.ReplyCommentTotal,
		IsAuthorReply:  isCreator(raw.User.UniqueID, creatorUniqueID),
	}
}

func isCreator(uniqueID, creatorUniqueID string) bool {
	return uniqueID != "" && uniqueID == creatorUniqueID
}

// ProcessedRecord is one creator's enriched video with its comment tree;
// the unit handed to a Sink.
type ProcessedRecord struct {
	Author         Author          `json:"author"`
	Video          json.RawMessage `json:"video,omitempty"`
	Description    string          `json:"description"`
	ID             string          `json:"id"`
	CreateTime     int64           `json:"create_time"`
	Hashtags       []Hashtag       `json:"hashtags"`
	EngagementRate float64         `json:"engagement_rate"`
	Stats          VideoStats      `json:"stats"`
	Comments       []Comment       `json:"comments"`
}
