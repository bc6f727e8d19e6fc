package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type rabbitMQDeliverer struct {
	conn       *amqp091.Connection
	channel    amqpPublisher
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

func NewRabbitMQDeliverer(url, exchange, routingKey, queueName string, logger zerolog.Logger) (InquiryDeliverer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, routingKey, exchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Str("queue", queue.Name).
		Str("routing_key", routingKey).
		Msg("Connected to RabbitMQ")

	return &rabbitMQDeliverer{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (d *rabbitMQDeliverer) Deliver(ctx context.Context, inquiry *models.Inquiry) error {
	event := models.InquirySubmittedEvent{
		InquiryID: inquiry.ID,
		StudentID: inquiry.StudentID,
		Subject:   inquiry.Subject,
		Message:   inquiry.Message,
		Timestamp: inquiry.SentAt.Unix(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = d.channel.PublishWithContext(
		publishCtx,
		d.exchange,
		d.routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			MessageId:    inquiry.ID,
			Timestamp:    inquiry.SentAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	d.logger.Info().
		Str("inquiry_id", inquiry.ID).
		Str("student_id", inquiry.StudentID).
		Msg("Inquiry submitted event published")
	return nil
}

func (d *rabbitMQDeliverer) Close() error {
	if d.channel != nil {
		if err := d.channel.Close(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			d.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}
	return nil
}
