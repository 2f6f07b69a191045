package services

import (
	"context"
	"testing"
	"time"

	"harborview/internal/domain"
)

func TestAnalyticsTrack(t *testing.T) {
	ctx := context.Background()

	t.Run("stores an event with derived client info", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAnalyticsService(db)

		result, err := svc.Track(ctx, &TrackPayload{
			Event:     "page_view",
			Page:      "/quote",
			SessionID: "sess-1",
			Data:      map[string]any{"referrer": "https://search.example"},
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ID == "" {
			t.Error("expected a generated id")
		}

		var stored domain.AnalyticsEvent
		if err := db.First(&stored, "id = ?", result.ID).Error; err != nil {
			t.Fatalf("failed to load stored event: %v", err)
		}
		if stored.DeviceType != "desktop" {
			t.Errorf("device type = %q, want %q", stored.DeviceType, "desktop")
		}
		if stored.Browser == "unknown" || stored.Browser == "" {
			t.Errorf("expected browser to be derived, got %q", stored.Browser)
		}
		if len(stored.Data) == 0 {
			t.Error("expected event data to be stored")
		}
	})

	t.Run("rejects a missing event name", func(t *testing.T) {
		svc := NewAnalyticsService(newTestDB(t))
		_, err := svc.Track(ctx, &TrackPayload{Page: "/"})
		requireServiceError(t, err, ErrTypeBadRequest)
	})

	t.Run("empty user agent falls back to unknown", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAnalyticsService(db)

		result, err := svc.Track(ctx, &TrackPayload{Event: "page_view"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var stored domain.AnalyticsEvent
		if err := db.First(&stored, "id = ?", result.ID).Error; err != nil {
			t.Fatalf("failed to load stored event: %v", err)
		}
		if stored.DeviceType != "unknown" {
			t.Errorf("device type = %q, want %q", stored.DeviceType, "unknown")
		}
	})
}

func TestAnalyticsSummary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewAnalyticsService(db)

	events := []struct {
		event   string
		page    string
		session string
	}{
		{"page_view", "/", "sess-1"},
		{"page_view", "/", "sess-1"},
		{"page_view", "/quote", "sess-2"},
		{"quote_form_started", "/quote", "sess-2"},
	}
	for _, e := range events {
		if _, err := svc.Track(ctx, &TrackPayload{Event: e.event, Page: e.page, SessionID: e.session}); err != nil {
			t.Fatalf("track failed: %v", err)
		}
	}

	summary, err := svc.Summary(ctx, nil, nil)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalEvents != 4 {
		t.Errorf("total events = %d, want 4", summary.TotalEvents)
	}
	if summary.UniqueSessions != 2 {
		t.Errorf("unique sessions = %d, want 2", summary.UniqueSessions)
	}
	if len(summary.TopEvents) == 0 || summary.TopEvents[0].Name != "page_view" || summary.TopEvents[0].Count != 3 {
		t.Errorf("top events = %v, want page_view with count 3 first", summary.TopEvents)
	}
	if len(summary.Daily) != 1 || summary.Daily[0].Count != 4 {
		t.Errorf("daily buckets = %v, want a single bucket of 4", summary.Daily)
	}
}

func TestComputeFunnel(t *testing.T) {
	t.Run("computes both rate series", func(t *testing.T) {
		counts := []int64{100, 40, 10, 2, 1}
		steps := ComputeFunnel(FunnelSteps, counts)

		wantFromStart := []float64{100, 40, 10, 2, 1}
		wantFromPrev := []float64{100, 40, 25, 20, 50}
		for i, step := range steps {
			if step.Event != FunnelSteps[i] {
				t.Errorf("step %d event = %q, want %q", i, step.Event, FunnelSteps[i])
			}
			if step.Count != counts[i] {
				t.Errorf("step %d count = %d, want %d", i, step.Count, counts[i])
			}
			if step.RateFromStart != wantFromStart[i] {
				t.Errorf("step %d rate from start = %v, want %v", i, step.RateFromStart, wantFromStart[i])
			}
			if step.RateFromPrev != wantFromPrev[i] {
				t.Errorf("step %d rate from prev = %v, want %v", i, step.RateFromPrev, wantFromPrev[i])
			}
		}
	})

	t.Run("zero predecessor never divides by zero", func(t *testing.T) {
		steps := ComputeFunnel(FunnelSteps, []int64{10, 0, 5, 0, 0})
		if steps[1].RateFromPrev != 0 {
			t.Errorf("rate after zero = %v, want 0", steps[1].RateFromPrev)
		}
		if steps[2].RateFromPrev != 0 {
			t.Errorf("rate with zero predecessor = %v, want 0", steps[2].RateFromPrev)
		}
		if steps[2].RateFromStart != 50 {
			t.Errorf("rate from start = %v, want 50", steps[2].RateFromStart)
		}
	})

	t.Run("empty funnel is all zeros", func(t *testing.T) {
		steps := ComputeFunnel(FunnelSteps, make([]int64, len(FunnelSteps)))
		for i, step := range steps {
			if step.RateFromStart != 0 || step.RateFromPrev != 0 {
				t.Errorf("step %d rates = (%v, %v), want zeros", i, step.RateFromStart, step.RateFromPrev)
			}
		}
	})

	t.Run("rates are rounded to two decimals", func(t *testing.T) {
		steps := ComputeFunnel([]string{"a", "b"}, []int64{3, 1})
		if steps[1].RateFromStart != 33.33 {
			t.Errorf("rate = %v, want 33.33", steps[1].RateFromStart)
		}
	})
}

func TestAnalyticsCleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes only events older than the cutoff", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAnalyticsService(db)

		old := domain.AnalyticsEvent{Event: "page_view", CreatedAt: time.Now().UTC().AddDate(0, 0, -45)}
		recent := domain.AnalyticsEvent{Event: "page_view", CreatedAt: time.Now().UTC().AddDate(0, 0, -5)}
		if err := db.Create(&old).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		if err := db.Create(&recent).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		deleted, err := svc.Cleanup(ctx, 30)
		if err != nil {
			t.Fatalf("cleanup failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}

		var remaining int64
		db.Model(&domain.AnalyticsEvent{}).Count(&remaining)
		if remaining != 1 {
			t.Errorf("remaining = %d, want 1", remaining)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewAnalyticsService(db)

		old := domain.AnalyticsEvent{Event: "page_view", CreatedAt: time.Now().UTC().AddDate(0, 0, -45)}
		if err := db.Create(&old).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		if _, err := svc.Cleanup(ctx, 30); err != nil {
			t.Fatalf("first cleanup failed: %v", err)
		}
		deleted, err := svc.Cleanup(ctx, 30)
		if err != nil {
			t.Fatalf("second cleanup failed: %v", err)
		}
		if deleted != 0 {
			t.Errorf("second cleanup deleted = %d, want 0", deleted)
		}
	})

	t.Run("rejects a non-positive retention", func(t *testing.T) {
		svc := NewAnalyticsService(newTestDB(t))
		_, err := svc.Cleanup(ctx, 0)
		requireServiceError(t, err, ErrTypeBadRequest)
	})
}
