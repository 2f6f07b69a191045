package api

import (
	"encoding/json"
	"log"
	"net/http"

	"harborview/internal/services"
	"harborview/internal/validation"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error      string                `json:"error"`
	Violations validation.Violations `json:"violations,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

// respondError maps service errors to HTTP statuses. Infrastructure
// errors are logged with full detail server-side and surfaced to the
// client only as a generic message unless debug mode is on.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		se = services.NewInternalError("internal server error", err)
	}

	switch se.Type {
	case services.ErrTypeBadRequest:
		respondJSON(w, http.StatusBadRequest, errorBody{Error: se.Message, Violations: se.Violations})
	case services.ErrTypeDuplicate:
		respondJSON(w, http.StatusTooManyRequests, errorBody{Error: se.Message})
	case services.ErrTypeUnauthorized:
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: se.Message})
	case services.ErrTypeForbidden:
		respondJSON(w, http.StatusForbidden, errorBody{Error: se.Message})
	case services.ErrTypeNotFound:
		respondJSON(w, http.StatusNotFound, errorBody{Error: se.Message})
	default:
		log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
		message := "internal server error"
		if s.cfg.App.Debug {
			message = se.Error()
		}
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: message})
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return services.NewBadRequestError("invalid JSON body")
	}
	return nil
}
