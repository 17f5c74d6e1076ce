package ingest

import (
	"time"

	"tkscraper/pkg/config"
	"tkscraper/pkg/crawler"
	"tkscraper/pkg/tiktok"
)

// DateLayout is the date_last_post format the API expects
const DateLayout = "2006-01-02 15:04:05"

// InfluencerProfile is the ingestion API's request body
type InfluencerProfile struct {
	Name               string   `json:"name"`
	Username           string   `json:"username"`
	Email              string   `json:"email"`
	Bio                string   `json:"bio"`
	ProfileURL         string   `json:"profile_url"`
	AvatarURL          string   `json:"avatar_url"`
	Location           string   `json:"location"`
	DateLastPost       string   `json:"date_last_post"`
	FakeFollowerRate   float64  `json:"fake_follower_rate"`
	AvgEngagementByDay string   `json:"avg_engagement_by_day"`
	AvgPostingTime     string   `json:"avg_posting_time"`
	PlatformIDs        []string `json:"platform_ids"`
	CategoryIDs        []string `json:"category_ids"`
	Metrics            Metrics  `json:"metrics"`
	PlatformMetrics    []any    `json:"platform_metrics"`
}

// Metrics is the nested metrics object. FollowerCount is null when the
// profile could not be enriched.
type Metrics struct {
	FollowerCount  *int64  `json:"follower_count"`
	EngagementRate float64 `json:"engagement_rate"`
	ActiveStatus   bool    `json:"active_status"`
}

// ToProfile maps a processed record onto the ingestion schema. The
// contact email is synthesized from the handle; the last-post date is the
// video's creation time in UTC.
func ToProfile(r *crawler.ProcessedRecord, cfg config.IngestConfig) InfluencerProfile {
	handle := r.Author.UniqueID

	domain := cfg.EmailDomain
	if domain == "" {
		domain = "gmail.com"
	}

	return InfluencerProfile{
		Name:            r.Author.Nickname,
		Username:        handle,
		Email:           handle + "@" + domain,
		Bio:             r.Author.Signature,
		ProfileURL:      tiktok.ProfileURL(handle),
		DateLastPost:    time.Unix(r.CreateTime, 0).UTC().Format(DateLayout),
		PlatformIDs:     nonNil(cfg.PlatformIDs),
		CategoryIDs:     nonNil(cfg.CategoryIDs),
		PlatformMetrics: []any{},
		Metrics: Metrics{
			FollowerCount:  r.Author.FollowerCount,
			EngagementRate: r.EngagementRate,
			ActiveStatus:   true,
		},
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
