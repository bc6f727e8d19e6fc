package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RubachokBoss/student-portal/internal/metrics"
	"github.com/RubachokBoss/student-portal/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("session not found")

// Deps are the collaborators shared by every session.
type Deps struct {
	Acks          service.AckService
	Inquiries     service.InquiryService
	Transport     service.Transport
	Pool          Submitter
	ReaderEnabled bool
	BridgeBuffer  int
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	deps    Deps
	idleTTL time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewManager(deps Deps, idleTTL time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Create opens a session whose identity is initialized from rawQuery.
func (m *Manager) Create(rawQuery string) *Session {
	id := uuid.New().String()
	s := newSession(id, rawQuery, m.deps, m.now())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.deps.Metrics.SessionOpened()
	m.logger.Info().Str("session_id", id).Str("student_id", s.Identity().ID).Msg("Session created")
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.Close()
	m.deps.Metrics.SessionClosed()
	m.logger.Info().Str("session_id", id).Msg("Session closed")
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed. Sessions with an active upload are kept.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL && !s.Progress().Active {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.deps.Metrics.SessionClosed()
	}
	if len(expired) > 0 {
		m.logger.Info().Int("expired", len(expired)).Msg("Idle sessions swept")
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done, then closes all sessions.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		m.deps.Metrics.SessionClosed()
	}
}
