package service

import (
	"fmt"
	"sync"

	"github.com/RubachokBoss/student-portal/internal/metrics"
	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rs/zerolog"
)

// IdentityResolver owns the canonical identity of one session. The URL is
// read once by NewIdentityResolver; every later mutation goes through
// UpdateField or ApplyReaderPayload and is announced to subscribers.
type IdentityResolver struct {
	// emitMu orders a mutation together with its notifications.
	emitMu sync.Mutex

	mu      sync.RWMutex
	current models.Identity
	subs    map[int]func(models.IdentityChange)
	order   []int
	nextSub int

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewIdentityResolver(rawQuery string, m *metrics.Metrics, logger zerolog.Logger) *IdentityResolver {
	initial := ParseIdentity(rawQuery)
	m.IdentityUpdated(models.SourceURL.String())
	return &IdentityResolver{
		current: initial,
		subs:    make(map[int]func(models.IdentityChange)),
		metrics: m,
		logger:  logger,
	}
}

func (r *IdentityResolver) Snapshot() models.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Subscribe registers fn for every later change, delivered in mutation order.
// fn must not mutate the resolver. The returned func removes the subscription.
func (r *IdentityResolver) Subscribe(fn func(models.IdentityChange)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.order = append(r.order, id)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subs[id]; !ok {
			return
		}
		delete(r.subs, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
}

// UpdateField replaces exactly one field.
func (r *IdentityResolver) UpdateField(field models.IdentityField, value string) (models.Identity, error) {
	if !field.Valid() {
		return r.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return r.mutate(models.SourceManual, func(cur models.Identity) models.Identity {
		switch field {
		case models.FieldID:
			cur.ID = value
		case models.FieldName:
			cur.Name = value
		case models.FieldCourse:
			cur.Course = value
		}
		return cur
	}), nil
}

// ApplyReaderPayload replaces the whole identity from a scanned text record.
func (r *IdentityResolver) ApplyReaderPayload(payload string) models.Identity {
	next := ParseIdentity(payload)
	return r.mutate(models.SourceReader, func(models.Identity) models.Identity {
		return next
	})
}

func (r *IdentityResolver) mutate(source models.IdentitySource, fn func(models.Identity) models.Identity) models.Identity {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	prev := r.current
	next := fn(prev)
	r.current = next
	var subs []func(models.IdentityChange)
	if next != prev {
		subs = make([]func(models.IdentityChange), 0, len(r.order))
		for _, id := range r.order {
			subs = append(subs, r.subs[id])
		}
	}
	r.mu.Unlock()

	if next == prev {
		return next
	}

	r.metrics.IdentityUpdated(source.String())
	r.logger.Debug().
		Str("source", source.String()).
		Str("student_id", next.ID).
		Msg("Identity changed")

	change := models.IdentityChange{Previous: prev, Current: next, Source: source}
	for _, fn := range subs {
		fn(change)
	}
	return next
}
