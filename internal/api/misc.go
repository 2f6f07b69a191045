package api

import (
	"net/http"

	"harborview/internal/services"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.health.Check(r.Context()))
}

func (s *Server) handlePartnersList(w http.ResponseWriter, r *http.Request) {
	partners, err := s.partners.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, partners)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.auth.Login(r.Context(), &payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		s.respondError(w, r, services.NewUnauthorizedError("not authenticated"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}
