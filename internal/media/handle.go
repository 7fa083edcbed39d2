package media

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReleased is returned when reading from a handle that was already released.
var ErrReleased = errors.New("media handle released")

const handleURLPrefix = "blob:fieldview/"

// Handle is an exclusively owned in-memory copy of fetched bytes, addressed
// by a local URL. It must be released exactly once by its owner; further
// releases are no-ops.
type Handle struct {
	id          uuid.UUID
	contentType string
	size        int
	registry    *Registry

	mu       sync.Mutex
	data     []byte
	released bool
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() uuid.UUID { return h.id }

// URL returns the local display URL for the handle.
func (h *Handle) URL() string { return handleURLPrefix + h.id.String() }

// ContentType returns the media type recorded at fetch time.
func (h *Handle) ContentType() string { return h.contentType }

// Size returns the number of bytes fetched.
func (h *Handle) Size() int { return h.size }

// Bytes returns the buffer, or false once released. The slice must not be modified.
func (h *Handle) Bytes() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, false
	}
	return h.data, true
}

// Reader returns a reader over the buffer.
func (h *Handle) Reader() (io.Reader, error) {
	data, ok := h.Bytes()
	if !ok {
		return nil, ErrReleased
	}
	return bytes.NewReader(data), nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release frees the buffer. It reports whether this call did the release;
// calling it again, or on a nil handle, returns false.
func (h *Handle) Release() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return false
	}
	h.released = true
	h.data = nil
	h.mu.Unlock()

	if h.registry != nil {
		h.registry.forget(h)
	}
	return true
}

// Stats summarises handle bookkeeping.
type Stats struct {
	Created  uint64
	Released uint64
	Live     int
}

// Registry tracks every handle a loader creates so leaks can be detected
// at teardown.
type Registry struct {
	log *zap.Logger

	mu       sync.Mutex
	live     map[uuid.UUID]*Handle
	created  uint64
	released uint64
}

// NewRegistry returns an empty registry. log may be nil.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{log: log, live: make(map[uuid.UUID]*Handle)}
}

func (r *Registry) newHandle(data []byte, contentType string) *Handle {
	h := &Handle{
		id:          uuid.New(),
		contentType: contentType,
		size:        len(data),
		data:        data,
		registry:    r,
	}
	r.mu.Lock()
	r.live[h.id] = h
	r.created++
	r.mu.Unlock()
	r.log.Debug("handle created", zap.String("handle", h.URL()), zap.Int("bytes", h.size))
	return h
}

func (r *Registry) forget(h *Handle) {
	r.mu.Lock()
	delete(r.live, h.id)
	r.released++
	r.mu.Unlock()
	r.log.Debug("handle released", zap.String("handle", h.URL()))
}

// Stats returns a consistent view of the counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Created: r.created, Released: r.released, Live: len(r.live)}
}

// ReleaseAll releases every handle still live and returns how many there were.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	pending := make([]*Handle, 0, len(r.live))
	for _, h := range r.live {
		pending = append(pending, h)
	}
	r.mu.Unlock()

	count := 0
	for _, h := range pending {
		if h.Release() {
			count++
		}
	}
	return count
}
