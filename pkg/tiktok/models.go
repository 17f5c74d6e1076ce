package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cursor is a pagination token. TikTok sends it as a JSON number on some
// endpoints and as a string on others; it is kept in its textual form.
type Cursor string

// UnmarshalJSON accepts a number, a string or null
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cursor(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("cursor: %w", err)
		}
		*c = Cursor(n.String())
	}
	return nil
}

func (c Cursor) String() string { return string(c) }

// Flag decodes TikTok's boolean-ish fields, which arrive as true/false or 0/1.
type Flag struct {
	Set   bool
	Value bool
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "":
		*f = Flag{}
	case "true":
		*f = Flag{Set: true, Value: true}
	case "false":
		*f = Flag{Set: true, Value: false}
	default:
		s := string(bytes.Trim(data, `"`))
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("flag: unexpected value %s", data)
		}
		*f = Flag{Set: true, Value: n != 0}
	}
	return nil
}

// False reports whether the flag was present and explicitly false
func (f Flag) False() bool { return f.Set && !f.Value }

// SearchResponse is one page of /api/search/item/full/. Items stay raw so
// the crawler can validate each one independently.
type SearchResponse struct {
	StatusCode int               `json:"status_code"`
	ItemList   []json.RawMessage `json:"item_list"`
	HasMore    Flag              `json:"has_more"`
	Cursor     Cursor            `json:"cursor"`
}

// CommentListResponse is one page of comments or replies
type CommentListResponse struct {
	StatusCode int          `json:"status_code"`
	Comments   []RawComment `json:"comments"`
	Cursor     Cursor       `json:"cursor"`
	HasMore    Flag         `json:"has_more"`
	Total      int64        `json:"total"`
}

// RawComment is a comment or reply as returned by the comment endpoints
type RawComment struct {
	CID               string         `json:"cid"`
	AwemeID           string         `json:"aweme_id"`
	Text              string         `json:"text"`
	CreateTime        int64          `json:"create_time"`
	DiggCount         int64          `json:"digg_count"`
	ReplyID           string         `json:"reply_id"`
	ReplyToReplyID    string         `json:"reply_to_reply_id"`
	User              RawCommentUser `json:"user"`
	ReplyCommentTotal int64          `json:"reply_comment_total"`
	ReplyComment      []RawComment   `json:"reply_comment"`
}

// RawCommentUser identifies a comment's author
type RawCommentUser struct {
	UID      string `json:"uid"`
	UniqueID string `json:"unique_id"`
	Nickname string `json:"nickname"`
}
