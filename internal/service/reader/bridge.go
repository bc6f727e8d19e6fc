package reader

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNoActiveScan = errors.New("no scan is listening")
	ErrBridgeBusy   = errors.New("tag bridge buffer is full")
	ErrBridgeClosed = errors.New("tag bridge is closed")
)

// TagBridge is a Scanner fed over HTTP by a companion device. Each Scan opens
// a fresh subscription and ends the previous one.
type TagBridge struct {
	mu      sync.Mutex
	current chan Message
	buffer  int
	closed  bool
}

func NewTagBridge(buffer int) *TagBridge {
	if buffer < 1 {
		buffer = 1
	}
	return &TagBridge{buffer: buffer}
}

func (b *TagBridge) Scan(ctx context.Context) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBridgeClosed
	}
	if b.current != nil {
		close(b.current)
	}
	ch := make(chan Message, b.buffer)
	b.current = ch

	go func() {
		<-ctx.Done()
		b.detach(ch)
	}()
	return ch, nil
}

// Push delivers a tag read to the listening scan.
func (b *TagBridge) Push(msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return ErrNoActiveScan
	}
	select {
	case b.current <- msg:
		return nil
	default:
		return ErrBridgeBusy
	}
}

func (b *TagBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.current != nil {
		close(b.current)
		b.current = nil
	}
}

func (b *TagBridge) detach(ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == ch {
		close(ch)
		b.current = nil
	}
}
