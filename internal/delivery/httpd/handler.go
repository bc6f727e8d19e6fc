package httpd

import (
	"context"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ReadinessCheck reports whether a backing dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	sessions      *session.Manager
	resources     []models.Resource
	checks        map[string]ReadinessCheck
	maxUploadSize int64
	logger        zerolog.Logger
}

func NewHandler(
	sessions *session.Manager,
	resources []models.Resource,
	checks map[string]ReadinessCheck,
	maxUploadSize int64,
	logger zerolog.Logger,
) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 32 << 20
	}
	return &Handler{
		sessions:      sessions,
		resources:     resources,
		checks:        checks,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/ready", h.ReadyCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Get("/resources", h.ListResources)

		api.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)

			r.Route("/{session_id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)

				r.Patch("/identity", h.UpdateIdentity)

				r.Get("/acknowledgment", h.GetAcknowledgment)
				r.Post("/acknowledgment", h.Acknowledge)

				r.Post("/files", h.SelectFiles)
				r.Post("/submission", h.Submit)
				r.Get("/submission/progress", h.GetProgress)

				r.Patch("/inquiry", h.UpdateDraft)
				r.Post("/inquiry/send", h.SendInquiry)

				r.Post("/reader/scan", h.StartScan)
				r.Post("/reader/messages", h.PushTag)
			})
		})
	})
}
