package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

type PostgresAckRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresAckRepository(db *sql.DB, logger zerolog.Logger) *PostgresAckRepository {
	return &PostgresAckRepository{db: db, logger: logger}
}

func (r *PostgresAckRepository) IsAcknowledged(ctx context.Context, studentID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM acknowledgments WHERE student_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to read acknowledgment: %w", err)
	}
	return exists, nil
}

func (r *PostgresAckRepository) Acknowledge(ctx context.Context, studentID string) error {
	query := `
		INSERT INTO acknowledgments (student_id, acknowledged_at)
		VALUES ($1, CURRENT_TIMESTAMP)
		ON CONFLICT (student_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("failed to write acknowledgment: %w", err)
	}
	return nil
}

// Close is a no-op; the *sql.DB is owned by the app.
func (r *PostgresAckRepository) Close() error {
	return nil
}

func (r *PostgresAckRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
