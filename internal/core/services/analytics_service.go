package services

import (
	"sort"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/pkg/errors"

	"github.com/shopspring/decimal"
)

// AnalyticsService turns raw metric events into period-bucketed time series
// and derived rates. It never mutates its input and never fails on
// well-formed data: empty input and short history are normal zero-valued
// results so dashboards stay renderable with partial data.
type AnalyticsService struct {
	loc *time.Location
}

// NewAnalyticsService creates an aggregator using loc as the reference
// timezone for bucket keys. A nil location means UTC.
func NewAnalyticsService(loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{loc: loc}
}

// Aggregate assigns every event to exactly one bucket for the given
// granularity and sums its counters there. The returned series is sorted
// ascending by period start. An event with a zero timestamp is a data
// integrity bug upstream and is surfaced, never skipped.
func (s *AnalyticsService) Aggregate(events []domain.MetricEvent, g domain.Granularity) (domain.TimeSeries, error) {
	if !g.Valid() {
		return nil, errors.NewInvalidInputError("unknown granularity: " + string(g))
	}

	type bucketState struct {
		bucket       domain.Bucket
		lastRecorded time.Time
	}

	buckets := make(map[string]*bucketState)
	for _, ev := range events {
		if ev.OccurredAt.IsZero() {
			return nil, errors.NewInvalidInputError("metric event has no timestamp")
		}

		key, periodStart := s.periodOf(ev.OccurredAt, g)
		st, ok := buckets[key]
		if !ok {
			st = &bucketState{bucket: domain.Bucket{Key: key, PeriodStart: periodStart}}
			buckets[key] = st
		}
		st.bucket.Sums = st.bucket.Sums.Add(ev.Counters)
		st.bucket.SampleCount++
		if !ev.OccurredAt.Before(st.lastRecorded) {
			st.lastRecorded = ev.OccurredAt
			st.bucket.FollowerCount = ev.FollowerCount
		}
	}

	series := make(domain.TimeSeries, 0, len(buckets))
	for _, st := range buckets {
		series = append(series, st.bucket)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].PeriodStart.Before(series[j].PeriodStart)
	})
	return series, nil
}

// periodOf derives the bucket key and the period's start instant in the
// reference timezone. Weeks are Sunday-aligned.
func (s *AnalyticsService) periodOf(t time.Time, g domain.Granularity) (string, time.Time) {
	t = t.In(s.loc)

	switch g {
	case domain.GranularityHour:
		start := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, s.loc)
		return start.Format("2006-01-02-15"), start
	case domain.GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return "wk-" + start.Format("2006-01-02"), start
	case domain.GranularityMonth:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, s.loc)
		return start.Format("2006-01"), start
	default: // day
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
		return start.Format("2006-01-02"), start
	}
}

// EngagementRate is (likes+comments+shares)/reach as a percentage rounded
// to two decimals. Zero reach yields exactly 0, never a division error.
func (s *AnalyticsService) EngagementRate(c domain.Counters) float64 {
	if c.Reach <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(c.Engagement()).
		Div(decimal.NewFromInt(c.Reach)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := rate.Float64()
	return f
}

// GrowthRate compares the last two buckets of a series on the given metric.
// Fewer than two buckets, or a non-positive previous value, yields a zero
// percent change: insufficient history is expected, not exceptional.
func (s *AnalyticsService) GrowthRate(series domain.TimeSeries, metric func(domain.Bucket) int64) domain.GrowthRate {
	if len(series) == 0 {
		return domain.GrowthRate{}
	}

	current := metric(series[len(series)-1])
	if len(series) < 2 {
		return domain.GrowthRate{Current: current}
	}

	previous := metric(series[len(series)-2])
	gr := domain.GrowthRate{Current: current, Previous: previous}
	if previous <= 0 {
		return gr
	}

	change := decimal.NewFromInt(current - previous).
		Div(decimal.NewFromInt(previous)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	gr.PercentChange, _ = change.Float64()
	return gr
}

// FollowerGrowth buckets the events and reports the period-over-period
// change of the latest follower count per period. Absent follower data
// keeps the historical zero-default behavior.
func (s *AnalyticsService) FollowerGrowth(events []domain.MetricEvent, g domain.Granularity) (domain.GrowthRate, domain.TimeSeries, error) {
	series, err := s.Aggregate(events, g)
	if err != nil {
		return domain.GrowthRate{}, nil, err
	}
	growth := s.GrowthRate(series, func(b domain.Bucket) int64 { return b.FollowerCount })
	return growth, series, nil
}

// LatestSnapshots reduces events to the most recently recorded one per
// (platform, subject) pair. Rollups start from these so re-synced history
// is never double-counted.
func (s *AnalyticsService) LatestSnapshots(events []domain.MetricEvent) []domain.MetricEvent {
	type pairKey struct {
		platform domain.Platform
		subject  string
	}

	latest := make(map[pairKey]domain.MetricEvent)
	for _, ev := range events {
		k := pairKey{platform: ev.Platform, subject: ev.SubjectID}
		if cur, ok := latest[k]; !ok || ev.OccurredAt.After(cur.OccurredAt) {
			latest[k] = ev
		}
	}

	snapshots := make([]domain.MetricEvent, 0, len(latest))
	for _, ev := range latest {
		snapshots = append(snapshots, ev)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].SubjectID != snapshots[j].SubjectID {
			return snapshots[i].SubjectID < snapshots[j].SubjectID
		}
		return snapshots[i].Platform < snapshots[j].Platform
	})
	return snapshots
}

// Rollup folds the latest snapshot per (platform, subject) pair into one
// counter total, the cross-entity sum used for post and campaign totals.
func (s *AnalyticsService) Rollup(events []domain.MetricEvent) domain.Counters {
	var total domain.Counters
	for _, ev := range s.LatestSnapshots(events) {
		total = total.Add(ev.Counters)
	}
	return total
}

// Overview sums every counter over the visible events and breaks the totals
// down per platform.
func (s *AnalyticsService) Overview(events []domain.MetricEvent) domain.AnalyticsOverview {
	overview := domain.AnalyticsOverview{TotalEvents: len(events)}

	perPlatform := make(map[domain.Platform]domain.Counters)
	for _, ev := range events {
		overview.Totals = overview.Totals.Add(ev.Counters)
		perPlatform[ev.Platform] = perPlatform[ev.Platform].Add(ev.Counters)
	}

	platforms := make([]domain.Platform, 0, len(perPlatform))
	for p := range perPlatform {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	for _, p := range platforms {
		overview.ByPlatform = append(overview.ByPlatform, domain.PlatformBreakdown{
			Platform: p,
			Sums:     perPlatform[p],
		})
	}
	return overview
}
