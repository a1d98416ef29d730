package domain

import "time"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformTwitter, PlatformLinkedIn, PlatformFacebook, PlatformTikTok, PlatformYouTube:
		return true
	}
	return false
}

// Counters holds the six engagement counters tracked per metric event.
// Missing counters on ingestion are zero, never a reason to skip an event.
type Counters struct {
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Views       int64 `json:"views"`
	Reach       int64 `json:"reach"`
	Impressions int64 `json:"impressions"`
}

func (c Counters) Add(other Counters) Counters {
	return Counters{
		Likes:       c.Likes + other.Likes,
		Comments:    c.Comments + other.Comments,
		Shares:      c.Shares + other.Shares,
		Views:       c.Views + other.Views,
		Reach:       c.Reach + other.Reach,
		Impressions: c.Impressions + other.Impressions,
	}
}

// Engagement is the sum of the interaction counters (likes, comments,
// shares), the numerator of the engagement rate.
func (c Counters) Engagement() int64 {
	return c.Likes + c.Comments + c.Shares
}

// MetricEvent is one raw, timestamped analytics record for a subject on a
// platform. Immutable once recorded; the aggregator only reads these.
type MetricEvent struct {
	SubjectID     string    `json:"subject_id"`
	Platform      Platform  `json:"platform"`
	OccurredAt    time.Time `json:"occurred_at"`
	Counters      Counters  `json:"counters"`
	FollowerCount int64     `json:"follower_count,omitempty"`

	OwnerUserID UserID `json:"owner_user_id"`
	OwnerTeamID TeamID `json:"owner_team_id,omitempty"`
}

func (e MetricEvent) OwnerUser() UserID { return e.OwnerUserID }
func (e MetricEvent) OwnerTeam() TeamID { return e.OwnerTeamID }

// Granularity selects the bucketing period for aggregation.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Bucket is a period-aligned aggregate of counters. Buckets only exist for
// the duration of one aggregation call.
type Bucket struct {
	Key           string    `json:"key"`
	PeriodStart   time.Time `json:"period_start"`
	Sums          Counters  `json:"sums"`
	SampleCount   int       `json:"sample_count"`
	FollowerCount int64     `json:"follower_count,omitempty"` // latest within the period
}

// TimeSeries is an ordered sequence of buckets, ascending by PeriodStart.
type TimeSeries []Bucket

// PlatformBreakdown is the per-platform slice of an overview report.
type PlatformBreakdown struct {
	Platform Platform `json:"platform"`
	Sums     Counters `json:"sums"`
}

// AnalyticsOverview is the totals report rendered on the dashboard:
// all-counter sums plus a per-platform breakdown.
type AnalyticsOverview struct {
	TotalEvents int                 `json:"total_events"`
	Totals      Counters            `json:"totals"`
	ByPlatform  []PlatformBreakdown `json:"by_platform"`
}

// GrowthRate compares the two most recent periods of a series.
type GrowthRate struct {
	Current       int64   `json:"current"`
	Previous      int64   `json:"previous"`
	PercentChange float64 `json:"percent_change"`
}
