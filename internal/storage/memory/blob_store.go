package memory

import (
	"context"
	"sync"
)

type blob struct {
	ContentType string
	Data        []byte
}

// BlobStore keeps snapshot blobs in memory and returns memory:// URIs.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewBlobStore constructs an empty BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

// PutObject stores a blob under path and returns its URI.
func (s *BlobStore) PutObject(_ context.Context, path, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = blob{ContentType: contentType, Data: append([]byte(nil), data...)}
	return "memory://" + path, nil
}

// GetObject returns a stored blob. It exists for tests.
func (s *BlobStore) GetObject(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b.Data...), true
}
