package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInquiry() *models.Inquiry {
	return &models.Inquiry{
		ID:        "inq-1",
		StudentID: "20251234",
		Subject:   "Schedule",
		Message:   "When is the lab?",
		SentAt:    time.Unix(1700000000, 0).UTC(),
	}
}

func TestLogDelivererWritesInquiry(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogDeliverer(zerolog.New(&buf))

	require.NoError(t, d.Deliver(context.Background(), testInquiry()))
	assert.Contains(t, buf.String(), `"student_id":"20251234"`)
	assert.Contains(t, buf.String(), `"subject":"Schedule"`)
	assert.NoError(t, d.Close())
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQDelivererPublishesEvent(t *testing.T) {
	ch := &fakeChannel{}
	d := &rabbitMQDeliverer{channel: ch, exchange: "portal_exchange", routingKey: "inquiry.submitted", logger: zerolog.Nop()}

	require.NoError(t, d.Deliver(context.Background(), testInquiry()))
	assert.Equal(t, "portal_exchange", ch.exchange)
	assert.Equal(t, "inquiry.submitted", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)

	var event models.InquirySubmittedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, "inq-1", event.InquiryID)
	assert.Equal(t, "20251234", event.StudentID)
	assert.Equal(t, int64(1700000000), event.Timestamp)

	require.NoError(t, d.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQDelivererWrapsPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	d := &rabbitMQDeliverer{channel: &fakeChannel{err: boom}, logger: zerolog.Nop()}

	err := d.Deliver(context.Background(), testInquiry())
	assert.ErrorIs(t, err, boom)
}

func TestSendGridDelivererPostsMail(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d, err := NewSendGridDeliverer(SendGridOptions{
		APIKey:    "key",
		FromEmail: "portal@example.edu",
		ToEmail:   "dean@example.edu",
		Host:      srv.URL,
	}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, d.Deliver(context.Background(), testInquiry()))
	assert.Equal(t, "/v3/mail/send", gotPath)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Contains(t, string(gotBody), "[20251234] Schedule")
	assert.Contains(t, string(gotBody), "dean@example.edu")
}

func TestSendGridDelivererReportsRejectedMail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	d, err := NewSendGridDeliverer(SendGridOptions{APIKey: "bad", Host: srv.URL}, zerolog.Nop())
	require.NoError(t, err)

	assert.Error(t, d.Deliver(context.Background(), testInquiry()))
}

func TestSendGridDelivererRequiresKey(t *testing.T) {
	_, err := NewSendGridDeliverer(SendGridOptions{}, zerolog.Nop())
	assert.Error(t, err)
}
