package integration

import (
	"context"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rs/zerolog"
)

// InquiryDeliverer hands a validated inquiry to the message-delivery endpoint.
type InquiryDeliverer interface {
	Deliver(ctx context.Context, inquiry *models.Inquiry) error
	Close() error
}

type logDeliverer struct {
	logger zerolog.Logger
}

// NewLogDeliverer records inquiries in the service log only.
func NewLogDeliverer(logger zerolog.Logger) InquiryDeliverer {
	return &logDeliverer{logger: logger}
}

func (d *logDeliverer) Deliver(_ context.Context, inquiry *models.Inquiry) error {
	d.logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("student_id", inquiry.StudentID).
		Str("subject", inquiry.Subject).
		Str("message", inquiry.Message).
		Msg("Inquiry")
	return nil
}

func (d *logDeliverer) Close() error {
	return nil
}
