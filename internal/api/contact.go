package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"harborview/internal/services"
)

// handleContactSubmit accepts a public contact form submission
func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	var payload services.ContactSubmitPayload
	if err := decodeJSON(r, &payload); err != nil {
		s.respondError(w, r, err)
		return
	}
	payload.IPAddress = clientIP(r)
	payload.UserAgent = r.UserAgent()

	result, err := s.contact.Submit(r.Context(), &payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleContactList(w http.ResponseWriter, r *http.Request) {
	query := &services.ContactListQuery{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Skip:     queryInt(r, "skip", 0),
		Limit:    queryInt(r, "limit", 50),
	}

	messages, err := s.contact.List(r.Context(), query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (s *Server) handleContactGet(w http.ResponseWriter, r *http.Request) {
	m, err := s.contact.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleContactUpdate(w http.ResponseWriter, r *http.Request) {
	var payload services.ContactUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		s.respondError(w, r, err)
		return
	}

	m, err := s.contact.Update(r.Context(), chi.URLParam(r, "id"), &payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleContactDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.contact.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContactStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.contact.Stats(r.Context(), queryTime(r, "from"), queryTime(r, "to"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
