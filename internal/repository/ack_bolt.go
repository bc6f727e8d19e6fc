package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
)

var ackBucket = []byte("acknowledgments")

// BoltAckRepository keeps acknowledgments in a local bbolt file, the server-side
// stand-in for the browser's local storage.
type BoltAckRepository struct {
	db     *bbolt.DB
	prefix string
	logger zerolog.Logger
}

func NewBoltAckRepository(path, keyPrefix string, logger zerolog.Logger) (*BoltAckRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(ackBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger bucket: %w", err)
	}

	logger.Info().Str("path", path).Msg("Opened acknowledgment ledger")

	return &BoltAckRepository{db: db, prefix: keyPrefix, logger: logger}, nil
}

func (r *BoltAckRepository) IsAcknowledged(_ context.Context, studentID string) (bool, error) {
	var acknowledged bool
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(ackBucket)
		if b == nil {
			return fmt.Errorf("ledger bucket not found")
		}
		acknowledged = string(b.Get(r.key(studentID))) == AckMarker
		return nil
	})
	return acknowledged, err
}

func (r *BoltAckRepository) Acknowledge(_ context.Context, studentID string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(ackBucket)
		if b == nil {
			return fmt.Errorf("ledger bucket not found")
		}
		return b.Put(r.key(studentID), []byte(AckMarker))
	})
}

func (r *BoltAckRepository) Close() error {
	return r.db.Close()
}

func (r *BoltAckRepository) key(studentID string) []byte {
	return []byte(r.prefix + studentID)
}
