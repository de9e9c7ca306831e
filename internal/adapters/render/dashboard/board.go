// Package dashboard renders the live camera board in the terminal.
package dashboard

import (
	"sync"
	"time"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

// Frame is what the board remembers about a source. It never holds a
// ResourceHandle; Data is a private copy and only kept when requested.
type Frame struct {
	SourceID   domain.FeedSourceID
	Label      string
	Info       domain.HandleInfo
	Live       bool
	Withdrawn  bool
	Updates    uint64
	ReceivedAt time.Time
	Data       []byte
}

// Board implements ports.Display.
type Board struct {
	clock     ports.Clock
	keepBytes bool

	mu     sync.RWMutex
	order  []domain.FeedSourceID
	frames map[domain.FeedSourceID]*Frame
}

var _ ports.Display = (*Board)(nil)

type BoardOption func(*Board)

func WithClock(clock ports.Clock) BoardOption {
	return func(b *Board) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithFrameCopies makes the board copy every published payload.
func WithFrameCopies() BoardOption {
	return func(b *Board) {
		b.keepBytes = true
	}
}

func NewBoard(sources []domain.FeedSource, opts ...BoardOption) *Board {
	b := &Board{
		clock:  ports.SystemClock{},
		frames: make(map[domain.FeedSourceID]*Frame, len(sources)),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, source := range sources {
		b.order = append(b.order, source.ID)
		b.frames[source.ID] = &Frame{SourceID: source.ID, Label: source.Label()}
	}
	return b
}

func (b *Board) Publish(handle *domain.ResourceHandle) {
	info := handle.Info()

	var data []byte
	if b.keepBytes {
		if payload, err := handle.Bytes(); err == nil {
			data = append([]byte(nil), payload...)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	frame := b.frameLocked(info.SourceID)
	frame.Info = info
	frame.Live = true
	frame.Withdrawn = false
	frame.Updates++
	frame.ReceivedAt = b.clock.Now()
	if b.keepBytes {
		frame.Data = data
	}
}

func (b *Board) Withdraw(sourceID domain.FeedSourceID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame := b.frameLocked(sourceID)
	frame.Live = false
	frame.Withdrawn = true
}

func (b *Board) frameLocked(id domain.FeedSourceID) *Frame {
	frame, ok := b.frames[id]
	if !ok {
		frame = &Frame{SourceID: id, Label: string(id)}
		b.frames[id] = frame
		b.order = append(b.order, id)
	}
	return frame
}

// Frames returns copies in source order.
func (b *Board) Frames() []Frame {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Frame, 0, len(b.order))
	for _, id := range b.order {
		frame := *b.frames[id]
		if frame.Data != nil {
			frame.Data = append([]byte(nil), frame.Data...)
		}
		out = append(out, frame)
	}
	return out
}
