package api

import (
	"log"
	"net/http"

	"harborview/internal/services"
)

// handleAnalyticsTrack stores a tracking event. Tracking never fails the
// caller: any error degrades to a 200 with a failure flag so a broken
// pipeline cannot break page loads.
func (s *Server) handleAnalyticsTrack(w http.ResponseWriter, r *http.Request) {
	var payload services.TrackPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	payload.IPAddress = clientIP(r)
	payload.UserAgent = r.UserAgent()

	result, err := s.analytics.Track(r.Context(), &payload)
	if err != nil {
		log.Printf("[ANALYTICS] Track degraded: %v", err)
		respondJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"id":        result.ID,
		"timestamp": result.Timestamp,
	})
}

func (s *Server) handleAnalyticsEvents(w http.ResponseWriter, r *http.Request) {
	query := &services.EventsQuery{
		Event: r.URL.Query().Get("event"),
		Page:  r.URL.Query().Get("page"),
		Skip:  queryInt(r, "skip", 0),
		Limit: queryInt(r, "limit", 100),
	}

	events, err := s.analytics.Events(r.Context(), query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context(), queryTime(r, "from"), queryTime(r, "to"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAnalyticsFunnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := s.analytics.Funnel(r.Context(), queryTime(r, "from"), queryTime(r, "to"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"steps": funnel})
}

func (s *Server) handleAnalyticsCleanup(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", s.cfg.Analytics.RetentionDays)

	deleted, err := s.analytics.Cleanup(r.Context(), days)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "days": days})
}
