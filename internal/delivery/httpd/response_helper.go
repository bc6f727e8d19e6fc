package httpd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/service"
	"github.com/RubachokBoss/student-portal/internal/service/reader"
	"github.com/RubachokBoss/student-portal/internal/session"
	"github.com/RubachokBoss/student-portal/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, code, message, kind string) {
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"type":    kind,
		},
		"success":   false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, status, response)
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, status, response)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		h.handleError(w, r, err)
		return nil, false
	}
	return s, true
}

// handleError maps domain errors to statuses. The message carries the
// student-facing notice when one exists.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	message := service.Notice(err)
	if message == "" {
		message = err.Error()
	}

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error(), "not_found")
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		writeError(w, http.StatusUnprocessableEntity, "FILE_TYPE_NOT_ALLOWED", message, "validation")
	case errors.Is(err, service.ErrIdentityRequired),
		errors.Is(err, service.ErrUnknownField),
		errors.Is(err, service.ErrNoFilesChosen),
		errors.Is(err, service.ErrNothingStaged),
		errors.Is(err, service.ErrInquiryIncomplete):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, "validation")
	case errors.Is(err, service.ErrUploadInProgress):
		writeError(w, http.StatusConflict, "UPLOAD_IN_PROGRESS", message, "conflict")
	case errors.Is(err, reader.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, "READER_UNSUPPORTED", message, "unsupported")
	case errors.Is(err, reader.ErrStart):
		writeError(w, http.StatusServiceUnavailable, "READER_START_FAILED", message, "transient")
	case errors.Is(err, reader.ErrNoActiveScan):
		writeError(w, http.StatusConflict, "NO_ACTIVE_SCAN", message, "conflict")
	case errors.Is(err, reader.ErrBridgeBusy),
		errors.Is(err, reader.ErrBridgeClosed),
		errors.Is(err, worker.ErrQueueFull),
		errors.Is(err, worker.ErrPoolStopped):
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", message, "transient")
	case errors.Is(err, service.ErrDeliveryFailed):
		h.requestLogger(r).Error().Err(err).Msg("Inquiry delivery failed")
		writeError(w, http.StatusBadGateway, "DELIVERY_FAILED", service.ErrDeliveryFailed.Error(), "transient")
	default:
		h.requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg("Unexpected error")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", "internal")
	}
}

func (h *Handler) requestLogger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.logger
}

func identityResponse(identity models.Identity) models.IdentityResponse {
	display := identity.ID
	if display == "" {
		display = "—"
	}
	return models.IdentityResponse{
		ID:        identity.ID,
		Name:      identity.Name,
		Course:    identity.Course,
		DisplayID: display,
		Greeting:  fmt.Sprintf("أهلاً %s (%s)", identity.Name, display),
	}
}

func fileResponses(files []models.FileDescriptor) []models.FileResponse {
	out := make([]models.FileResponse, len(files))
	for i, f := range files {
		out[i] = models.FileResponse{Name: f.Name, Extension: f.Extension, Size: f.Size}
	}
	return out
}

func runResponse(status service.RunStatus) models.RunResponse {
	resp := models.RunResponse{
		State:    string(status.State),
		Files:    status.Files,
		Uploaded: status.Uploaded,
		Failed:   status.Failed,
		Error:    status.Error,
	}
	if status.State == service.RunSucceeded {
		resp.Notice = service.NoticeUploaded
	}
	return resp
}

func sessionResponse(view session.View) models.SessionResponse {
	return models.SessionResponse{
		SessionID:       view.ID,
		Identity:        identityResponse(view.Identity),
		Location:        view.Location,
		Acknowledged:    view.Acknowledged,
		StagedFiles:     fileResponses(view.StagedFiles),
		FileNames:       view.FileNames,
		Progress:        view.Progress,
		Run:             runResponse(view.Run),
		Draft:           view.Draft,
		ReaderAvailable: view.ReaderAvailable,
		AcceptList:      service.AcceptList(),
		CreatedAt:       view.CreatedAt,
	}
}
