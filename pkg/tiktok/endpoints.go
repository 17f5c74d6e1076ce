package tiktok

import (
	"net/url"
	"strconv"
)

const (
	// BaseURL is the TikTok web origin
	BaseURL = "https://www.tiktok.com"

	// SearchEndpoint returns paginated video search results
	SearchEndpoint = "/api/search/item/full/"

	// CommentListEndpoint returns top-level comments for a video
	CommentListEndpoint = "/api/comment/list/"

	// ReplyListEndpoint returns replies under one comment
	ReplyListEndpoint = "/api/comment/list/reply/"
)

// ProfilePath returns the public profile page path for a creator handle
func ProfilePath(uniqueID string) string {
	return "/@" + url.PathEscape(uniqueID)
}

// ProfileURL returns the absolute public profile URL for a creator handle
func ProfileURL(uniqueID string) string {
	return BaseURL + ProfilePath(uniqueID)
}

// DefaultParams are the web-client query parameters sent with every GET.
func DefaultParams(region, msToken string) url.Values {
	p := url.Values{}
	p.Set("aid", "1988")
	p.Set("app_language", "en")
	p.Set("app_name", "tiktok_web")
	p.Set("browser_language", "en-US")
	p.Set("browser_name", "Mozilla")
	p.Set("browser_online", "true")
	p.Set("browser_platform", "Win32")
	p.Set("channel", "tiktok_web")
	p.Set("cookie_enabled", "true")
	p.Set("device_platform", "web_pc")
	p.Set("os", "windows")
	p.Set("priority_region", region)
	p.Set("region", region)
	if msToken != "" {
		p.Set("msToken", msToken)
	}
	return p
}

// SearchParams builds the query for one search page
func SearchParams(keyword string, offset, limit int) url.Values {
	p := url.Values{}
	p.Set("keyword", keyword)
	p.Set("offset", strconv.Itoa(offset))
	p.Set("limit", strconv.Itoa(limit))
	return p
}

// CommentParams builds the query for one comment page
func CommentParams(videoID string, cursor, limit int) url.Values {
	p := url.Values{}
	p.Set("aweme_id", videoID)
	p.Set("cursor", strconv.Itoa(cursor))
	p.Set("limit", strconv.Itoa(limit))
	return p
}

// ReplyParams builds the query for one reply page. The cursor is passed
// through exactly as the server returned it.
func ReplyParams(commentID, videoID string, cursor Cursor) url.Values {
	p := url.Values{}
	p.Set("comment_id", commentID)
	p.Set("item_id", videoID)
	p.Set("cursor", cursor.String())
	return p
}
