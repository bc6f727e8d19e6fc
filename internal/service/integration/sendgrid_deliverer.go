package integration

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridEndpoint = "/v3/mail/send"
	sendGridHost     = "https://api.sendgrid.com"
)

type SendGridOptions struct {
	APIKey    string
	FromName  string
	FromEmail string
	ToName    string
	ToEmail   string
	// Host overrides the API host.
	Host string
}

type sendGridDeliverer struct {
	opts   SendGridOptions
	from   *sgmail.Email
	to     *sgmail.Email
	logger zerolog.Logger
}

// NewSendGridDeliverer mails every inquiry to the configured staff address.
func NewSendGridDeliverer(opts SendGridOptions, logger zerolog.Logger) (InquiryDeliverer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if opts.Host == "" {
		opts.Host = sendGridHost
	}
	return &sendGridDeliverer{
		opts:   opts,
		from:   sgmail.NewEmail(opts.FromName, opts.FromEmail),
		to:     sgmail.NewEmail(opts.ToName, opts.ToEmail),
		logger: logger,
	}, nil
}

func (d *sendGridDeliverer) Deliver(_ context.Context, inquiry *models.Inquiry) error {
	req := sendgrid.GetRequest(d.opts.APIKey, sendGridEndpoint, d.opts.Host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(d.message(inquiry))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("failed to send inquiry mail: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d", res.StatusCode)
	}

	d.logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("student_id", inquiry.StudentID).
		Int("status", res.StatusCode).
		Msg("Inquiry mailed")
	return nil
}

func (d *sendGridDeliverer) message(inquiry *models.Inquiry) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(d.to)

	m := sgmail.NewV3Mail()
	m.SetFrom(d.from)
	m.Subject = fmt.Sprintf("[%s] %s", inquiry.StudentID, inquiry.Subject)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", inquiry.Message))
	m.SetHeader("X-Inquiry-Id", inquiry.ID)
	return m
}

func (d *sendGridDeliverer) Close() error {
	return nil
}
