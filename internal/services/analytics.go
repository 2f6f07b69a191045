package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"harborview/internal/domain"
	"harborview/internal/metrics"
	"harborview/internal/util"
	"harborview/internal/validation"
	apperrors "harborview/pkg/errors"
)

// FunnelSteps is the fixed ordered list of events measured by the
// conversion funnel.
var FunnelSteps = []string{
	"page_view",
	"quote_form_started",
	"quote_form_submitted",
	"quote_received",
	"policy_purchased",
}

// AnalyticsService implements event tracking and reporting
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// TrackPayload is the raw tracking payload. Provenance fields are filled
// in by the transport layer.
type TrackPayload struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Page      string         `json:"page"`
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// TrackResult is returned for a stored event
type TrackResult struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Track stores a single analytics event, deriving device metadata from
// the user agent
func (s *AnalyticsService) Track(ctx context.Context, p *TrackPayload) (*TrackResult, error) {
	var v validation.Violations
	validation.Required(&v, "event", p.Event)
	validation.Length(&v, "event", p.Event, 1, 100)
	validation.Length(&v, "page", p.Page, 0, 255)
	if !v.OK() {
		return nil, NewValidationError(v)
	}

	var data datatypes.JSON
	if p.Data != nil {
		raw, err := json.Marshal(p.Data)
		if err != nil {
			return nil, NewBadRequestError("event data is not serializable")
		}
		data = datatypes.JSON(raw)
	}

	client := util.ParseUserAgent(p.UserAgent)

	event := &domain.AnalyticsEvent{
		Event:      strings.TrimSpace(p.Event),
		Data:       data,
		Page:       strings.TrimSpace(p.Page),
		SessionID:  strings.TrimSpace(p.SessionID),
		UserID:     strings.TrimSpace(p.UserID),
		IPAddress:  p.IPAddress,
		UserAgent:  p.UserAgent,
		DeviceType: client.DeviceType,
		Browser:    client.Browser,
		OS:         client.OS,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		log.Printf("[ANALYTICS] Track failed: database error: %v", err)
		return nil, NewInternalError("failed to store analytics event", err)
	}

	metrics.RecordAnalyticsEvent()
	return &TrackResult{ID: event.ID, Timestamp: event.CreatedAt}, nil
}

// EventsQuery filters the administrative event listing
type EventsQuery struct {
	Event string
	Page  string
	Skip  int
	Limit int
}

// Events returns recent events for administrative inspection
func (s *AnalyticsService) Events(ctx context.Context, q *EventsQuery) ([]domain.AnalyticsEvent, error) {
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.WithContext(ctx).Order("created_at DESC").Offset(q.Skip).Limit(limit)
	if q.Event != "" {
		query = query.Where("event = ?", q.Event)
	}
	if q.Page != "" {
		query = query.Where("page = ?", q.Page)
	}

	var events []domain.AnalyticsEvent
	if err := query.Find(&events).Error; err != nil {
		log.Printf("[ANALYTICS] Events failed: database error: %v", err)
		return nil, NewInternalError("failed to fetch analytics events", err)
	}

	return events, nil
}

// NameCount pairs a grouped name with its frequency
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DayCount pairs a calendar day with its event count
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

// AnalyticsSummary aggregates stored events over a date range
type AnalyticsSummary struct {
	TotalEvents    int64       `json:"total_events"`
	UniqueSessions int64       `json:"unique_sessions"`
	TopEvents      []NameCount `json:"top_events"`
	TopPages       []NameCount `json:"top_pages"`
	Daily          []DayCount  `json:"daily"`
}

const topN = 10

// Summary computes counts, top-N breakdowns and daily buckets over an
// optional date range
func (s *AnalyticsService) Summary(ctx context.Context, from, to *time.Time) (*AnalyticsSummary, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.AnalyticsEvent{})
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at <= ?", *to)
		}
		return q
	}

	summary := &AnalyticsSummary{}

	if err := base().Count(&summary.TotalEvents).Error; err != nil {
		return nil, NewInternalError("failed to count analytics events", err)
	}

	if err := base().Where("session_id <> ''").Distinct("session_id").Count(&summary.UniqueSessions).Error; err != nil {
		return nil, NewInternalError("failed to count unique sessions", err)
	}

	if err := base().Select("event as name, count(*) as count").
		Group("event").Order("count DESC").Limit(topN).
		Scan(&summary.TopEvents).Error; err != nil {
		return nil, NewInternalError("failed to compute top events", err)
	}

	if err := base().Where("page <> ''").Select("page as name, count(*) as count").
		Group("page").Order("count DESC").Limit(topN).
		Scan(&summary.TopPages).Error; err != nil {
		return nil, NewInternalError("failed to compute top pages", err)
	}

	// Daily buckets are computed in Go so the query stays portable
	// across the SQLite and Postgres dialects.
	var timestamps []time.Time
	if err := base().Order("created_at ASC").Pluck("created_at", &timestamps).Error; err != nil {
		return nil, NewInternalError("failed to fetch event timestamps", err)
	}
	summary.Daily = bucketByDay(timestamps)

	return summary, nil
}

// bucketByDay groups timestamps into calendar-day counts, oldest first
func bucketByDay(timestamps []time.Time) []DayCount {
	counts := make(map[string]int64)
	for _, ts := range timestamps {
		counts[ts.UTC().Format("2006-01-02")]++
	}
	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	buckets := make([]DayCount, len(days))
	for i, day := range days {
		buckets[i] = DayCount{Day: day, Count: counts[day]}
	}
	return buckets
}

// FunnelStep is one step of the conversion funnel
type FunnelStep struct {
	Event         string  `json:"event"`
	Count         int64   `json:"count"`
	RateFromStart float64 `json:"rate_from_start"` // percent of the first step
	RateFromPrev  float64 `json:"rate_from_prev"`  // percent of the preceding step
}

// Funnel computes the conversion funnel over the fixed step list for an
// optional date range
func (s *AnalyticsService) Funnel(ctx context.Context, from, to *time.Time) ([]FunnelStep, error) {
	counts := make([]int64, len(FunnelSteps))
	for i, step := range FunnelSteps {
		q := s.db.WithContext(ctx).Model(&domain.AnalyticsEvent{}).Where("event = ?", step)
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at <= ?", *to)
		}
		if err := q.Count(&counts[i]).Error; err != nil {
			return nil, NewInternalError("failed to compute funnel step count", err)
		}
	}
	return ComputeFunnel(FunnelSteps, counts), nil
}

// ComputeFunnel derives the per-step conversion rates from raw counts.
// A step whose predecessor count is zero converts at 0%, never dividing
// by zero.
func ComputeFunnel(steps []string, counts []int64) []FunnelStep {
	result := make([]FunnelStep, len(steps))
	for i, step := range steps {
		fs := FunnelStep{Event: step, Count: counts[i]}

		if i == 0 {
			if counts[0] > 0 {
				fs.RateFromStart = 100
				fs.RateFromPrev = 100
			}
		} else {
			if counts[0] > 0 {
				fs.RateFromStart = roundRate(float64(counts[i]) / float64(counts[0]) * 100)
			}
			if counts[i-1] > 0 {
				fs.RateFromPrev = roundRate(float64(counts[i]) / float64(counts[i-1]) * 100)
			}
		}

		result[i] = fs
	}
	return result
}

func roundRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}

// Cleanup deletes events strictly older than the retention cutoff and
// returns the number removed. Safe to re-run at any time.
func (s *AnalyticsService) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, NewBadRequestError("days must be greater than 0")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.AnalyticsEvent{})
	if res.Error != nil {
		log.Printf("[ANALYTICS] Cleanup failed: database error: %v", res.Error)
		return 0, NewInternalError("failed to delete expired analytics events",
			apperrors.Wrap(apperrors.ErrCodeInternalError, "analytics cleanup", res.Error))
	}

	log.Printf("[ANALYTICS] Cleanup successful: deleted=%d, cutoff=%s", res.RowsAffected, cutoff.Format(time.RFC3339))
	return res.RowsAffected, nil
}
