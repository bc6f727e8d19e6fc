package service

import (
	"context"
	"fmt"

	"github.com/RubachokBoss/student-portal/internal/metrics"
	"github.com/RubachokBoss/student-portal/internal/repository"
	"github.com/rs/zerolog"
)

type AckService interface {
	// Load never consults storage for an empty id.
	Load(ctx context.Context, studentID string) (bool, error)
	Acknowledge(ctx context.Context, studentID string) error
}

type ackService struct {
	repo    repository.AckRepository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewAckService(repo repository.AckRepository, m *metrics.Metrics, logger zerolog.Logger) AckService {
	return &ackService{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

func (s *ackService) Load(ctx context.Context, studentID string) (bool, error) {
	if studentID == "" {
		return false, nil
	}
	ok, err := s.repo.IsAcknowledged(ctx, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to load acknowledgment: %w", err)
	}
	return ok, nil
}

func (s *ackService) Acknowledge(ctx context.Context, studentID string) error {
	if studentID == "" {
		return ErrIdentityRequired
	}
	if err := s.repo.Acknowledge(ctx, studentID); err != nil {
		return fmt.Errorf("failed to store acknowledgment: %w", err)
	}

	s.metrics.Acknowledged()
	s.logger.Info().Str("student_id", studentID).Msg("Rules acknowledged")
	return nil
}
