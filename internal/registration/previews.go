package registration

import (
	"sync"

	"github.com/google/uuid"
)

// File is an uploaded document before it joins a form.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Previews issues and releases preview handles for attachments. Every
// handle returned by Create must be passed to Revoke exactly once.
type Previews interface {
	Create(f File) (handle string, err error)
	Revoke(handle string) error
	URL(handle string) string
}

// MemoryPreviews keeps preview contents in process memory and serves
// them under BasePath + handle.
type MemoryPreviews struct {
	BasePath string

	mu    sync.RWMutex
	files map[string]File
}

// NewMemoryPreviews returns an empty store whose URLs start with basePath.
func NewMemoryPreviews(basePath string) *MemoryPreviews {
	return &MemoryPreviews{
		BasePath: basePath,
		files:    make(map[string]File),
	}
}

func (p *MemoryPreviews) Create(f File) (string, error) {
	handle := uuid.NewString()

	p.mu.Lock()
	p.files[handle] = f
	p.mu.Unlock()

	return handle, nil
}

// Revoke releases a handle. Releasing an unknown or already released
// handle returns ErrPreviewNotFound.
func (p *MemoryPreviews) Revoke(handle string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.files[handle]; !ok {
		return ErrPreviewNotFound
	}
	delete(p.files, handle)
	return nil
}

func (p *MemoryPreviews) URL(handle string) string {
	return p.BasePath + handle
}

// Open returns the file behind a live handle.
func (p *MemoryPreviews) Open(handle string) (File, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	f, ok := p.files[handle]
	return f, ok
}

// Len reports how many handles are currently live.
func (p *MemoryPreviews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}
