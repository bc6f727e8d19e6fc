package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/service"
	"github.com/RubachokBoss/student-portal/internal/service/reader"
	"github.com/RubachokBoss/student-portal/internal/worker"
	"github.com/rs/zerolog"
)

// Submitter schedules upload runs.
type Submitter interface {
	Submit(task worker.Task) error
}

// Session is the server-side state of one open portal view.
type Session struct {
	id        string
	createdAt time.Time
	lastSeen  atomic.Int64

	identity  *service.IdentityResolver
	pipeline  *service.Pipeline
	reader    *reader.Reader
	bridge    *reader.TagBridge
	acks      service.AckService
	inquiries service.InquiryService
	pool      Submitter

	mu           sync.RWMutex
	location     string
	acknowledged bool
	ackedIDs     map[string]struct{}
	draft        models.InquiryDraft

	unsubscribe func()
	closeOnce   sync.Once
	logger      zerolog.Logger
}

// View is a point-in-time copy of a session.
type View struct {
	ID              string
	CreatedAt       time.Time
	Identity        models.Identity
	Location        string
	Acknowledged    bool
	StagedFiles     []models.FileDescriptor
	FileNames       string
	Progress        models.UploadProgress
	Run             service.RunStatus
	Draft           models.InquiryDraft
	ReaderAvailable bool
}

func newSession(id, rawQuery string, deps Deps, now time.Time) *Session {
	logger := deps.Logger.With().Str("session_id", id).Logger()

	s := &Session{
		id:        id,
		createdAt: now,
		acks:      deps.Acks,
		inquiries: deps.Inquiries,
		pool:      deps.Pool,
		ackedIDs:  make(map[string]struct{}),
		logger:    logger,
	}
	s.lastSeen.Store(now.UnixNano())

	s.identity = service.NewIdentityResolver(rawQuery, deps.Metrics, logger)
	s.pipeline = service.NewPipeline(deps.Transport, deps.Metrics, logger)

	capability := reader.Unavailable()
	if deps.ReaderEnabled {
		s.bridge = reader.NewTagBridge(deps.BridgeBuffer)
		capability = reader.Available(s.bridge)
	}
	s.reader = reader.New(capability, func(payload string) {
		s.identity.ApplyReaderPayload(payload)
	}, deps.Metrics, logger)

	initial := s.identity.Snapshot()
	s.location = service.Location(initial)
	s.acknowledged = s.loadAck(initial.ID)

	s.unsubscribe = s.identity.Subscribe(s.onIdentityChange)
	return s
}

// onIdentityChange reloads the flag only when the id changed. An id
// acknowledged through this session stays acknowledged even if the ledger
// read raced the write.
func (s *Session) onIdentityChange(change models.IdentityChange) {
	location := service.Location(change.Current)

	reload := change.Current.ID != change.Previous.ID
	var loaded bool
	if reload {
		loaded = s.loadAck(change.Current.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = location
	if reload {
		_, acked := s.ackedIDs[change.Current.ID]
		s.acknowledged = loaded || acked
	}
}

func (s *Session) loadAck(studentID string) bool {
	ok, err := s.acks.Load(context.Background(), studentID)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", studentID).Msg("Failed to load acknowledgment")
		return false
	}
	return ok
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

func (s *Session) Identity() models.Identity {
	return s.identity.Snapshot()
}

// Location is the mirrored address-bar value.
func (s *Session) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

func (s *Session) Acknowledged() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acknowledged
}

func (s *Session) UpdateIdentity(field models.IdentityField, value string) (models.Identity, error) {
	return s.identity.UpdateField(field, value)
}

func (s *Session) Acknowledge(ctx context.Context) error {
	studentID := s.identity.Snapshot().ID
	if err := s.acks.Acknowledge(ctx, studentID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackedIDs[studentID] = struct{}{}
	if s.identity.Snapshot().ID == studentID {
		s.acknowledged = true
	}
	return nil
}

func (s *Session) SelectFiles(files []models.FileDescriptor) error {
	return s.pipeline.Select(files)
}

// Submit begins an upload run of the staged files on the worker pool.
func (s *Session) Submit() error {
	identity := s.identity.Snapshot()
	run, err := s.pipeline.Begin(identity.ID, identity.Course)
	if err != nil {
		return err
	}

	if err := s.pool.Submit(func(ctx context.Context) {
		_ = run.Execute(ctx)
	}); err != nil {
		run.Abort(err)
		return fmt.Errorf("failed to schedule upload: %w", err)
	}
	return nil
}

func (s *Session) Progress() models.UploadProgress {
	return s.pipeline.Progress()
}

func (s *Session) RunStatus() service.RunStatus {
	return s.pipeline.Status()
}

func (s *Session) Draft() models.InquiryDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// UpdateDraft replaces the given draft fields; nil leaves a field as is.
func (s *Session) UpdateDraft(subject, message *string) models.InquiryDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subject != nil {
		s.draft.Subject = *subject
	}
	if message != nil {
		s.draft.Message = *message
	}
	return s.draft
}

// SendInquiry delivers the current draft and clears it on success.
func (s *Session) SendInquiry(ctx context.Context) (*models.Inquiry, error) {
	draft := s.Draft()
	inquiry, err := s.inquiries.Send(ctx, s.identity.Snapshot().ID, draft)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.draft == draft {
		s.draft = models.InquiryDraft{}
	}
	s.mu.Unlock()
	return inquiry, nil
}

// Scan starts a contactless scan. It reports false when a setup is already
// in flight.
func (s *Session) Scan() (bool, error) {
	return s.reader.Scan()
}

// PushTag hands a tag read from the companion device to the listening scan.
func (s *Session) PushTag(msg reader.Message) error {
	if s.bridge == nil {
		return reader.ErrUnsupported
	}
	return s.bridge.Push(msg)
}

func (s *Session) ReaderAvailable() bool {
	return s.reader.Available()
}

func (s *Session) Snapshot() View {
	s.mu.RLock()
	location, acknowledged, draft := s.location, s.acknowledged, s.draft
	s.mu.RUnlock()

	return View{
		ID:              s.id,
		CreatedAt:       s.createdAt,
		Identity:        s.identity.Snapshot(),
		Location:        location,
		Acknowledged:    acknowledged,
		StagedFiles:     s.pipeline.Staged(),
		FileNames:       s.pipeline.FileNames(),
		Progress:        s.pipeline.Progress(),
		Run:             s.pipeline.Status(),
		Draft:           draft,
		ReaderAvailable: s.reader.Available(),
	}
}

// Close ends any scan listen. A running upload finishes on its own.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.reader.Close()
		if s.bridge != nil {
			s.bridge.Close()
		}
	})
}
