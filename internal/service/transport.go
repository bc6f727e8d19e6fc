package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/repository"
	"github.com/RubachokBoss/student-portal/pkg/hash"
	"github.com/rs/zerolog"
)

// ProgressFunc receives a completion percent in 0..100.
type ProgressFunc func(percent int)

type UploadRequest struct {
	StudentID string
	Course    string
	Files     []models.FileDescriptor
}

// Transport moves a validated selection somewhere. Implementations report
// progress through the callback; the pipeline enforces monotonicity.
type Transport interface {
	Upload(ctx context.Context, req UploadRequest, progress ProgressFunc) error
}

// SimulatedTransport advances progress in fixed timed steps and never fails
// unless ctx is cancelled.
type SimulatedTransport struct {
	Steps    int
	Interval time.Duration
}

func NewSimulatedTransport(steps int, interval time.Duration) *SimulatedTransport {
	if steps < 1 {
		steps = 1
	}
	return &SimulatedTransport{Steps: steps, Interval: interval}
}

func (t *SimulatedTransport) Upload(ctx context.Context, _ UploadRequest, progress ProgressFunc) error {
	timer := time.NewTimer(t.Interval)
	defer timer.Stop()

	for i := 1; i <= t.Steps; i++ {
		if i > 1 {
			timer.Reset(t.Interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		progress(StepPercent(i, t.Steps))
	}
	return nil
}

// StepPercent is round(step/total*100).
func StepPercent(step, total int) int {
	return int(math.Round(float64(step) / float64(total) * 100))
}

// BatchError reports a partially uploaded batch.
type BatchError struct {
	Uploaded []string
	Failed   string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upload of %q failed after %d stored file(s): %v", e.Failed, len(e.Uploaded), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

type StorageTransportConfig struct {
	RetryCount  int
	RetryDelay  time.Duration
	FileTimeout time.Duration
}

// StorageTransport writes each file to object storage under a key derived
// from its content hash, skipping objects that already exist.
type StorageTransport struct {
	storage repository.ObjectStorage
	hasher  *hash.Hasher
	config  StorageTransportConfig
	logger  zerolog.Logger
}

func NewStorageTransport(storage repository.ObjectStorage, hasher *hash.Hasher, config StorageTransportConfig, logger zerolog.Logger) *StorageTransport {
	if config.RetryCount < 0 {
		config.RetryCount = 0
	}
	return &StorageTransport{
		storage: storage,
		hasher:  hasher,
		config:  config,
		logger:  logger,
	}
}

func (t *StorageTransport) Upload(ctx context.Context, req UploadRequest, progress ProgressFunc) error {
	var total int64
	for _, f := range req.Files {
		total += f.Size
	}
	tracker := &byteProgress{total: total, files: len(req.Files), report: progress}

	uploaded := make([]string, 0, len(req.Files))
	for i, file := range req.Files {
		if err := t.uploadFile(ctx, req, file, tracker.forFile(i, file.Size)); err != nil {
			return &BatchError{Uploaded: uploaded, Failed: file.Name, Err: err}
		}
		uploaded = append(uploaded, file.Name)
		tracker.fileDone(i, file.Size)
	}

	t.logger.Info().
		Str("student_id", req.StudentID).
		Int("files", len(uploaded)).
		Int64("bytes", total).
		Msg("Submission stored")
	return nil
}

func (t *StorageTransport) uploadFile(ctx context.Context, req UploadRequest, file models.FileDescriptor, onBytes func(int64)) error {
	sum, err := t.checksum(file)
	if err != nil {
		return err
	}
	key := ObjectKey(req.StudentID, sum, file.Extension)

	exists, err := t.storage.Exists(ctx, key)
	if err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("Failed to check stored object")
	} else if exists {
		t.logger.Debug().Str("key", key).Str("file", file.Name).Msg("Object already stored")
		return nil
	}

	meta := map[string]string{
		"original-name": file.Name,
		"student-id":    req.StudentID,
		"course":        req.Course,
		"hash":          string(t.hasher.Algorithm()) + ":" + sum,
	}

	var lastErr error
	for attempt := 0; attempt <= t.config.RetryCount; attempt++ {
		if attempt > 0 {
			delay := t.config.RetryDelay * time.Duration(attempt)
			t.logger.Warn().
				Err(lastErr).
				Str("file", file.Name).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying upload")
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
		}

		lastErr = t.put(ctx, key, file, meta, onBytes)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) && ctx.Err() != nil {
			return lastErr
		}
	}
	return fmt.Errorf("failed after %d attempt(s): %w", t.config.RetryCount+1, lastErr)
}

func (t *StorageTransport) put(ctx context.Context, key string, file models.FileDescriptor, meta map[string]string, onBytes func(int64)) error {
	if t.config.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.FileTimeout)
		defer cancel()
	}

	rc, err := file.Content.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	onBytes(0)
	r := &countingReader{r: rc, onRead: onBytes}
	if err := t.storage.PutObject(ctx, key, r, file.Size, ContentType(file.Extension), meta); err != nil {
		return err
	}
	return nil
}

func (t *StorageTransport) checksum(file models.FileDescriptor) (string, error) {
	rc, err := file.Content.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer rc.Close()

	sum, _, err := t.hasher.CalculateReader(rc)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", file.Name, err)
	}
	return sum, nil
}

// ObjectKey is the content-addressed storage key of a submitted file.
func ObjectKey(studentID, sum, ext string) string {
	owner := studentID
	if owner == "" {
		owner = "anonymous"
	}
	key := "submissions/" + owner + "/" + sum
	if ext != "" {
		key += "." + ext
	}
	return key
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"zip":  "application/zip",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// byteProgress turns per-file byte counts into a batch percent. Batches of
// empty files progress per file instead.
type byteProgress struct {
	mu     sync.Mutex
	total  int64
	done   int64
	files  int
	report ProgressFunc
}

func (p *byteProgress) forFile(index int, size int64) func(int64) {
	return func(n int64) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if n > size {
			n = size
		}
		if p.total > 0 {
			p.report(int((p.done + n) * 100 / p.total))
			return
		}
		p.report(index * 100 / p.files)
	}
}

func (p *byteProgress) fileDone(index int, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += size
	if p.total > 0 {
		p.report(int(p.done * 100 / p.total))
		return
	}
	p.report((index + 1) * 100 / p.files)
}

type countingReader struct {
	r      io.Reader
	n      int64
	onRead func(int64)
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.n += int64(n)
		c.onRead(c.n)
	}
	return n, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
