package service

import (
	"context"
	"fmt"
	"time"

	"github.com/RubachokBoss/student-portal/internal/metrics"
	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/service/integration"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type InquiryService interface {
	Send(ctx context.Context, studentID string, draft models.InquiryDraft) (*models.Inquiry, error)
}

type inquiryService struct {
	deliverer integration.InquiryDeliverer
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewInquiryService(deliverer integration.InquiryDeliverer, m *metrics.Metrics, logger zerolog.Logger) InquiryService {
	return &inquiryService{
		deliverer: deliverer,
		now:       time.Now,
		metrics:   m,
		logger:    logger,
	}
}

func (s *inquiryService) Send(ctx context.Context, studentID string, draft models.InquiryDraft) (*models.Inquiry, error) {
	if studentID == "" || draft.Subject == "" || draft.Message == "" {
		s.metrics.InquiryResult("incomplete")
		return nil, ErrInquiryIncomplete
	}

	inquiry := &models.Inquiry{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Subject:   draft.Subject,
		Message:   draft.Message,
		SentAt:    s.now().UTC(),
	}

	if err := s.deliverer.Deliver(ctx, inquiry); err != nil {
		s.metrics.InquiryResult("failed")
		s.logger.Error().Err(err).Str("student_id", studentID).Msg("Failed to deliver inquiry")
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	s.metrics.InquiryResult("sent")
	return inquiry, nil
}
