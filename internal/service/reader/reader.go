package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/RubachokBoss/student-portal/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	ErrUnsupported = errors.New("contactless reader is not supported")
	ErrStart       = errors.New("failed to start contactless scan")
)

const RecordTypeText = "text"

// Record is one NDEF record of a tag read.
type Record struct {
	RecordType string `json:"recordType"`
	Encoding   string `json:"encoding,omitempty"`
	Lang       string `json:"lang,omitempty"`
	Data       []byte `json:"data"`
}

// Message is one tag read.
type Message struct {
	Records []Record `json:"records"`
}

// Scanner is the platform scanning capability. Scan returns once listening
// is set up; the channel yields every later tag read and is closed when
// listening ends.
type Scanner interface {
	Scan(ctx context.Context) (<-chan Message, error)
}

// Capability is resolved once per process: either Available with a scanner
// or Unavailable.
type Capability struct {
	scanner Scanner
}

func Available(s Scanner) Capability {
	return Capability{scanner: s}
}

func Unavailable() Capability {
	return Capability{}
}

func (c Capability) Scanner() (Scanner, bool) {
	return c.scanner, c.scanner != nil
}

// Reader forwards decoded text records of a scan to a sink.
type Reader struct {
	capability Capability
	sink       func(payload string)

	// reading is set while scan setup is in flight.
	reading atomic.Bool

	base    context.Context
	stop    context.CancelFunc
	mu      sync.Mutex
	current context.CancelFunc
	wg      sync.WaitGroup

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func New(capability Capability, sink func(payload string), m *metrics.Metrics, logger zerolog.Logger) *Reader {
	base, stop := context.WithCancel(context.Background())
	return &Reader{
		capability: capability,
		sink:       sink,
		base:       base,
		stop:       stop,
		metrics:    m,
		logger:     logger,
	}
}

func (r *Reader) Available() bool {
	_, ok := r.capability.Scanner()
	return ok
}

// Scan starts listening for tag reads. It reports false without error when a
// setup is already in flight. A successful scan replaces any earlier listen.
func (r *Reader) Scan() (bool, error) {
	scanner, ok := r.capability.Scanner()
	if !ok {
		r.metrics.ReaderScan("unsupported")
		return false, ErrUnsupported
	}
	if !r.reading.CompareAndSwap(false, true) {
		r.metrics.ReaderScan("ignored")
		return false, nil
	}
	defer r.reading.Store(false)

	if err := r.base.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrStart, err)
	}

	ctx, cancel := context.WithCancel(r.base)
	messages, err := scanner.Scan(ctx)
	if err != nil {
		cancel()
		r.metrics.ReaderScan("failed")
		r.logger.Warn().Err(err).Msg("Failed to start contactless scan")
		return false, fmt.Errorf("%w: %w", ErrStart, err)
	}

	r.mu.Lock()
	if r.current != nil {
		r.current()
	}
	r.current = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.consume(ctx, messages)

	r.metrics.ReaderScan("started")
	r.logger.Debug().Msg("Contactless scan started")
	return true, nil
}

// Reading reports whether a scan setup is in flight.
func (r *Reader) Reading() bool {
	return r.reading.Load()
}

// Close ends any listen and waits for the consumer to exit.
func (r *Reader) Close() {
	r.stop()
	r.wg.Wait()
}

func (r *Reader) consume(ctx context.Context, messages <-chan Message) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			r.dispatch(msg)
		}
	}
}

func (r *Reader) dispatch(msg Message) {
	for _, rec := range msg.Records {
		if rec.RecordType != RecordTypeText {
			continue
		}
		text, err := DecodeText(rec)
		if err != nil {
			r.logger.Warn().Err(err).Str("encoding", rec.Encoding).Msg("Skipping undecodable record")
			continue
		}
		r.sink(text)
	}
}
