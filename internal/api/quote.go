package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"harborview/internal/services"
)

// handleQuoteSubmit accepts a public quote request submission
func (s *Server) handleQuoteSubmit(w http.ResponseWriter, r *http.Request) {
	var payload services.QuoteSubmitPayload
	if err := decodeJSON(r, &payload); err != nil {
		s.respondError(w, r, err)
		return
	}
	payload.IPAddress = clientIP(r)
	payload.UserAgent = r.UserAgent()

	result, err := s.quote.Submit(r.Context(), &payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleQuoteList(w http.ResponseWriter, r *http.Request) {
	query := &services.QuoteListQuery{
		Status:        r.URL.Query().Get("status"),
		InsuranceType: r.URL.Query().Get("insuranceType"),
		Skip:          queryInt(r, "skip", 0),
		Limit:         queryInt(r, "limit", 50),
	}

	quotes, err := s.quote.List(r.Context(), query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	q, err := s.quote.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuoteUpdate(w http.ResponseWriter, r *http.Request) {
	var payload services.QuoteUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.respondError(w, r, err)
		return
	}

	q, err := s.quote.Update(r.Context(), chi.URLParam(r, "id"), &payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuoteDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.quote.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuoteMarkQuoted(w http.ResponseWriter, r *http.Request) {
	q, err := s.quote.MarkQuoted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuoteMarkConverted(w http.ResponseWriter, r *http.Request) {
	q, err := s.quote.MarkConverted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuoteMarkDeclined(w http.ResponseWriter, r *http.Request) {
	q, err := s.quote.MarkDeclined(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuoteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.quote.Stats(r.Context(), queryTime(r, "from"), queryTime(r, "to"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
