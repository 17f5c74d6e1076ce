package crawler

// EngagementRate returns (likes + comments + shares) / views * 100, or 0
// when views is not positive.
func EngagementRate(likes, comments, shares, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments+shares) / float64(views) * 100
}
