package httpd

import (
	"errors"
	"io"
	"net/http"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/go-chi/chi/v5"
)

// CreateSession initializes identity from the body query, or from the
// request's own query string when the body is empty.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	query := r.URL.RawQuery
	var req models.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "validation")
		return
	}
	if req.Query != "" {
		query = req.Query
	}

	s := h.sessions.Create(query)
	w.Header().Set("Location", s.Location())
	writeSuccess(w, http.StatusCreated, sessionResponse(s.Snapshot()))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, sessionResponse(s.Snapshot()))
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "session_id")); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateIdentity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.UpdateIdentityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "validation")
		return
	}

	identity, err := s.UpdateIdentity(models.IdentityField(req.Field), req.Value)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", s.Location())
	writeSuccess(w, http.StatusOK, models.UpdateIdentityResponse{
		Identity:     identityResponse(identity),
		Location:     s.Location(),
		Acknowledged: s.Acknowledged(),
	})
}

func (h *Handler) GetAcknowledgment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, models.AcknowledgmentResponse{
		StudentID:    s.Identity().ID,
		Acknowledged: s.Acknowledged(),
	})
}

func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Acknowledge(r.Context()); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, models.AcknowledgmentResponse{
		StudentID:    s.Identity().ID,
		Acknowledged: s.Acknowledged(),
	})
}
