package domain

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type FeedSourceID string

type FeedSource struct {
	ID   FeedSourceID
	Name string
	// Path is resolved against the server base URL.
	Path string
}

func (s FeedSource) Validate() error {
	if strings.TrimSpace(string(s.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("path is required")
	}
	if !strings.HasPrefix(s.Path, "/") {
		return fmt.Errorf("path %q must be absolute", s.Path)
	}
	return nil
}

func (s FeedSource) Label() string {
	if strings.TrimSpace(s.Name) != "" {
		return s.Name
	}
	return string(s.ID)
}

func DefaultFeedSources() []FeedSource {
	return []FeedSource{
		{ID: "1", Name: "Camera 01", Path: "/api/images/1"},
		{ID: "2", Name: "Camera 02", Path: "/api/images/2"},
	}
}

type Image struct {
	Data        []byte
	ContentType string
}

// ResourceHandle owns one fetched payload until Release is called. After
// release the payload is gone and Bytes reports ErrHandleReleased.
type ResourceHandle struct {
	SourceID    FeedSourceID
	Ref         string
	Seq         uint64
	CreatedAt   time.Time
	ContentType string

	mu        sync.RWMutex
	data      []byte
	released  atomic.Bool
	onRelease func()
}

func NewResourceHandle(sourceID FeedSourceID, ref string, seq uint64, createdAt time.Time, image Image, onRelease func()) *ResourceHandle {
	return &ResourceHandle{
		SourceID:    sourceID,
		Ref:         ref,
		Seq:         seq,
		CreatedAt:   createdAt,
		ContentType: image.ContentType,
		data:        image.Data,
		onRelease:   onRelease,
	}
}

// Bytes returns the payload without copying. The slice must not be used
// after the handle is released.
func (h *ResourceHandle) Bytes() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.released.Load() {
		return nil, ErrHandleReleased
	}
	return h.data, nil
}

func (h *ResourceHandle) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// Release frees the payload. Only the first call has an effect and reports true.
func (h *ResourceHandle) Release() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}

	h.mu.Lock()
	h.data = nil
	h.mu.Unlock()

	if h.onRelease != nil {
		h.onRelease()
	}
	return true
}

func (h *ResourceHandle) Released() bool {
	return h.released.Load()
}

func (h *ResourceHandle) Info() HandleInfo {
	return HandleInfo{
		SourceID:    h.SourceID,
		Ref:         h.Ref,
		Seq:         h.Seq,
		CreatedAt:   h.CreatedAt,
		ContentType: h.ContentType,
		Size:        h.Size(),
	}
}

// HandleInfo is a detached copy of a handle's metadata, safe to keep after release.
type HandleInfo struct {
	SourceID    FeedSourceID
	Ref         string
	Seq         uint64
	CreatedAt   time.Time
	ContentType string
	Size        int
}
