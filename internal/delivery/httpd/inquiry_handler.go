package httpd

import (
	"net/http"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/service"
)

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.UpdateDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "validation")
		return
	}

	writeSuccess(w, http.StatusOK, s.UpdateDraft(req.Subject, req.Message))
}

func (h *Handler) SendInquiry(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	inquiry, err := s.SendInquiry(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, models.InquiryResponse{
		Inquiry: inquiry,
		Notice:  service.NoticeInquirySent,
	})
}
