package http

import (
	"net/http"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/internal/infrastructure/middleware"
	"socialdeck/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics  ports.AnalyticsRepository
	aggregator ports.Aggregator
	access     ports.AccessResolver
	verifier   ports.IdentityVerifier
	dispatcher ports.Dispatcher

	onAggregation func(duration time.Duration)
}

func NewAnalyticsHandler(
	analytics ports.AnalyticsRepository,
	aggregator ports.Aggregator,
	access ports.AccessResolver,
	verifier ports.IdentityVerifier,
	dispatcher ports.Dispatcher,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:  analytics,
		aggregator: aggregator,
		access:     access,
		verifier:   verifier,
		dispatcher: dispatcher,
	}
}

// SetAggregationObserver installs a callback invoked with the duration of
// every aggregation run.
func (h *AnalyticsHandler) SetAggregationObserver(fn func(duration time.Duration)) {
	h.onAggregation = fn
}

func (h *AnalyticsHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/analytics")
	api.Use(middleware.RequirePrincipal(h.verifier))
	{
		api.POST("/events", h.RecordEvent)
		api.GET("/overview", h.Overview)
		api.GET("/platforms/:platform", h.PlatformSeries)
		api.GET("/growth", h.Growth)
		api.GET("/posts/performance", h.PostPerformance)
	}
}

type RecordEventRequest struct {
	SubjectID     string          `json:"subject_id" binding:"required,max=100"`
	Platform      string          `json:"platform" binding:"required"`
	OccurredAt    time.Time       `json:"occurred_at" binding:"required"`
	Counters      domain.Counters `json:"counters"`
	FollowerCount int64           `json:"follower_count"`
	TeamOwned     bool            `json:"team_owned"`
}

func (h *AnalyticsHandler) RecordEvent(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	var req RecordEventRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	platform := domain.Platform(req.Platform)
	if !platform.Valid() {
		c.Error(errors.NewInvalidInputError("unsupported platform: " + req.Platform))
		return
	}
	if req.OccurredAt.IsZero() {
		c.Error(errors.NewInvalidInputError("occurred_at is required"))
		return
	}

	var teamID domain.TeamID
	if req.TeamOwned {
		if !principal.HasTeam() {
			c.Error(errors.NewInvalidInputError("cannot record a team event without a team"))
			return
		}
		teamID = principal.TeamID
	}

	event := domain.MetricEvent{
		SubjectID:     req.SubjectID,
		Platform:      platform,
		OccurredAt:    req.OccurredAt,
		Counters:      req.Counters,
		FollowerCount: req.FollowerCount,
		OwnerUserID:   principal.ID,
		OwnerTeamID:   teamID,
	}
	if err := h.analytics.Record(c.Request.Context(), event); err != nil {
		c.Error(errors.NewInternalError("failed to record event"))
		return
	}

	h.dispatcher.Dispatch(
		domain.Event{Type: "analytics:event", Data: event},
		domain.PlatformAnalyticsScope(platform, principal.ID),
	)
	c.JSON(http.StatusCreated, gin.H{"recorded": true})
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	events, err := h.visibleEvents(c, principal, "")
	if err != nil {
		c.Error(err)
		return
	}

	overview := h.aggregator.Overview(events)
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) PlatformSeries(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	platform := domain.Platform(c.Param("platform"))
	if !platform.Valid() {
		c.Error(errors.NewInvalidInputError("unsupported platform: " + c.Param("platform")))
		return
	}

	granularity := granularityFrom(c)
	if !granularity.Valid() {
		c.Error(errors.NewInvalidInputError("granularity must be hour, day, week or month"))
		return
	}

	events, err := h.visibleEvents(c, principal, platform)
	if err != nil {
		c.Error(err)
		return
	}

	start := time.Now()
	series, err := h.aggregator.Aggregate(events, granularity)
	if err != nil {
		c.Error(err)
		return
	}
	h.observeAggregation(start)

	buckets := make([]gin.H, 0, len(series))
	for _, bucket := range series {
		buckets = append(buckets, gin.H{
			"key":             bucket.Key,
			"period_start":    bucket.PeriodStart,
			"sums":            bucket.Sums,
			"sample_count":    bucket.SampleCount,
			"engagement_rate": h.aggregator.EngagementRate(bucket.Sums),
		})
	}

	growth := h.aggregator.GrowthRate(series, func(b domain.Bucket) int64 {
		return b.Sums.Engagement()
	})

	c.JSON(http.StatusOK, gin.H{
		"platform":    platform,
		"granularity": granularity,
		"buckets":     buckets,
		"growth":      growth,
	})
}

func (h *AnalyticsHandler) Growth(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	granularity := granularityFrom(c)
	if !granularity.Valid() {
		c.Error(errors.NewInvalidInputError("granularity must be hour, day, week or month"))
		return
	}

	platform := domain.Platform(c.Query("platform"))
	if platform != "" && !platform.Valid() {
		c.Error(errors.NewInvalidInputError("unsupported platform: " + string(platform)))
		return
	}

	events, err := h.visibleEvents(c, principal, platform)
	if err != nil {
		c.Error(err)
		return
	}

	start := time.Now()
	growth, series, err := h.aggregator.FollowerGrowth(events, granularity)
	if err != nil {
		c.Error(err)
		return
	}
	h.observeAggregation(start)

	c.JSON(http.StatusOK, gin.H{
		"granularity": granularity,
		"growth":      growth,
		"series":      series,
	})
}

// PostPerformance reports each subject's most recent snapshot per platform,
// so totals reflect current state instead of double-counting cumulative
// samples.
func (h *AnalyticsHandler) PostPerformance(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)

	events, err := h.visibleEvents(c, principal, domain.Platform(c.Query("platform")))
	if err != nil {
		c.Error(err)
		return
	}

	snapshots := h.aggregator.LatestSnapshots(events)
	totals := h.aggregator.Rollup(events)

	out := make([]gin.H, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, gin.H{
			"subject_id":      snap.SubjectID,
			"platform":        snap.Platform,
			"occurred_at":     snap.OccurredAt,
			"counters":        snap.Counters,
			"engagement_rate": h.aggregator.EngagementRate(snap.Counters),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":           out,
		"totals":          totals,
		"engagement_rate": h.aggregator.EngagementRate(totals),
	})
}

func (h *AnalyticsHandler) visibleEvents(c *gin.Context, principal *domain.Principal, platform domain.Platform) ([]domain.MetricEvent, error) {
	opts := ports.MetricQueryOptions{
		Platform:  platform,
		SubjectID: c.Query("subject_id"),
	}
	if from := c.Query("from"); from != "" {
		at, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, errors.NewInvalidInputError("from must be RFC3339")
		}
		opts.From = at
	}
	if to := c.Query("to"); to != "" {
		at, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, errors.NewInvalidInputError("to must be RFC3339")
		}
		opts.To = at
	}

	events, err := h.analytics.ListVisible(c.Request.Context(), h.access.ListFilterFor(principal), opts)
	if err != nil {
		return nil, errors.NewInternalError("failed to query analytics")
	}
	return events, nil
}

func (h *AnalyticsHandler) observeAggregation(start time.Time) {
	if h.onAggregation != nil {
		h.onAggregation(time.Since(start))
	}
}

func granularityFrom(c *gin.Context) domain.Granularity {
	raw := c.Query("granularity")
	if raw == "" {
		return domain.GranularityDay
	}
	return domain.Granularity(raw)
}
