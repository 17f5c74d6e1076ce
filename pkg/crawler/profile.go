package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
)

// statsAnchor captures the body of the first `"stats":{...}` object on a
// profile page, up to (not including) its first closing brace.
var statsAnchor = regexp.MustCompile(`"stats":([^}]*)`)

// rehydrationSelector is the server-rendered state script on profile pages
const rehydrationSelector = `script#__UNIVERSAL_DATA_FOR_REHYDRATION__`

// ProfileEnricher recovers creator counters from a public profile page
type ProfileEnricher struct {
	fetcher ProfileFetcher
	logger  logger.Logger
	stats   *Stats
}

// NewProfileEnricher creates a ProfileEnricher
func NewProfileEnricher(fetcher ProfileFetcher, stats *Stats, log logger.Logger) *ProfileEnricher {
	if stats == nil {
		stats = &Stats{}
	}
	return &ProfileEnricher{
		fetcher: fetcher,
		logger:  logger.OrNop(log).WithField("component", "profile_enricher"),
		stats:   stats,
	}
}

// Enrich fetches the creator's profile and returns its counters. Any
// failure is logged and yields empty AuthorStats.
func (p *ProfileEnricher) Enrich(ctx context.Context, uniqueID string) AuthorStats {
	log := p.logger.WithField("unique_id", uniqueID)

	page, err := p.fetcher.Profile(ctx, uniqueID)
	if err != nil {
		p.stats.ProfileMisses.Add(1)
		log.WithError(err).Warn("Profile fetch failed, continuing without enrichment")
		return AuthorStats{}
	}

	stats, err := ParseProfileStats(page)
	if err != nil {
		p.stats.ProfileMisses.Add(1)
		log.WithError(err).Warn("Profile stats not found, continuing without enrichment")
		return AuthorStats{}
	}

	log.DebugWithFields("Profile enriched", map[string]interface{}{
		"has_follower_count": stats.FollowerCount != nil,
	})
	return stats
}

// ParseProfileStats extracts AuthorStats from profile page text. The
// `"stats":` anchor is tried first; if that fragment is missing or does not
// parse, the rehydration script is decoded instead.
func ParseProfileStats(page string) (AuthorStats, error) {
	stats, anchorErr := parseStatsAnchor(page)
	if anchorErr == nil {
		return stats, nil
	}

	stats, ssrErr := parseRehydrationStats(page)
	if ssrErr == nil {
		return stats, nil
	}

	return AuthorStats{}, errors.Wrap(errors.ErrorTypeParse,
		fmt.Errorf("%v; %v", anchorErr, ssrErr), "profile stats")
}

func parseStatsAnchor(page string) (AuthorStats, error) {
	m := statsAnchor.FindStringSubmatch(page)
	if m == nil {
		return AuthorStats{}, fmt.Errorf("stats anchor not found")
	}

	var stats AuthorStats
	if err := json.Unmarshal([]byte(m[1]+"}"), &stats); err != nil {
		return AuthorStats{}, fmt.Errorf("stats anchor: %w", err)
	}
	return stats, nil
}

type rehydrationState struct {
	DefaultScope struct {
		UserDetail struct {
			UserInfo struct {
				Stats *AuthorStats `json:"stats"`
			} `json:"userInfo"`
		} `json:"webapp.user-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

func parseRehydrationStats(page string) (AuthorStats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return AuthorStats{}, fmt.Errorf("parse html: %w", err)
	}

	script := doc.Find(rehydrationSelector).First()
	if script.Length() == 0 {
		return AuthorStats{}, fmt.Errorf("rehydration script not found")
	}

	var state rehydrationState
	if err := json.Unmarshal([]byte(script.Text()), &state); err != nil {
		return AuthorStats{}, fmt.Errorf("rehydration script: %w", err)
	}

	stats := state.DefaultScope.UserDetail.UserInfo.Stats
	if stats == nil {
		return AuthorStats{}, fmt.Errorf("rehydration script has no user stats")
	}
	return *stats, nil
}
