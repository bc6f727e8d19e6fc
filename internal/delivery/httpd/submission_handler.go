package httpd

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/RubachokBoss/student-portal/internal/models"
)

const filesField = "files"

// SelectFiles validates and stages the multipart "files" parts as one batch.
func (h *Handler) SelectFiles(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("selection exceeds %d bytes", h.maxUploadSize), "validation")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse form data", "validation")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files, err := readFiles(r.MultipartForm.File[filesField])
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := s.SelectFiles(files); err != nil {
		h.handleError(w, r, err)
		return
	}

	snapshot := s.Snapshot()
	writeSuccess(w, http.StatusOK, models.SelectFilesResponse{
		Files:     fileResponses(snapshot.StagedFiles),
		FileNames: snapshot.FileNames,
	})
}

func readFiles(headers []*multipart.FileHeader) ([]models.FileDescriptor, error) {
	files := make([]models.FileDescriptor, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, models.FileDescriptor{
			Name:    fh.Filename,
			Size:    int64(len(body)),
			Content: models.BytesContent(body),
		})
	}
	return files, nil
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Submit(); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, models.SubmissionResponse{
		Progress: s.Progress(),
		Run:      runResponse(s.RunStatus()),
	})
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, models.SubmissionResponse{
		Progress: s.Progress(),
		Run:      runResponse(s.RunStatus()),
	})
}
