package httpd

import (
	"net/http"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/service/reader"
)

// StartScan begins listening for tag reads. A request while setup is in
// flight succeeds with started=false.
func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	started, err := s.Scan()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, models.ScanResponse{Started: started})
}

// PushTag is the tag bridge endpoint for the companion device.
func (h *Handler) PushTag(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.TagMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "validation")
		return
	}

	msg := reader.Message{Records: make([]reader.Record, len(req.Records))}
	for i, rec := range req.Records {
		data := rec.Data
		if rec.Text != "" {
			data = []byte(rec.Text)
		}
		msg.Records[i] = reader.Record{
			RecordType: rec.RecordType,
			Encoding:   rec.Encoding,
			Lang:       rec.Lang,
			Data:       data,
		}
	}

	if err := s.PushTag(msg); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
