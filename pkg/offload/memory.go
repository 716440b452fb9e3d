package offload

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps resources in a map. Contents are lost on restart.
type MemoryStore struct {
	scheme string

	mu        sync.RWMutex
	resources map[string]*Resource
	closed    bool

	now func() time.Time
}

// NewMemoryStore creates an empty store issuing handles under scheme.
func NewMemoryStore(scheme string) *MemoryStore {
	if scheme == "" {
		scheme = "callisto"
	}
	return &MemoryStore{
		scheme:    scheme,
		resources: make(map[string]*Resource),
		now:       time.Now,
	}
}

// Persist stores a copy of res.
func (s *MemoryStore) Persist(ctx context.Context, res *Resource) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewStorageError("memory", "persist", err)
	}

	stored, err := prepare(res, s.scheme, s.now)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", NewStorageError("memory", "persist", ErrClosed)
	}
	s.resources[stored.ID] = stored

	return stored.URI, nil
}

// Retrieve returns a copy of the resource for handle.
func (s *MemoryStore) Retrieve(ctx context.Context, handle string) (*Resource, error) {
	id, err := ParseHandle(handle)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, NewStorageError("memory", "retrieve", ErrClosed)
	}
	res, ok := s.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res.clone(), nil
}

// Delete removes the resource for handle.
func (s *MemoryStore) Delete(ctx context.Context, handle string) error {
	id, err := ParseHandle(handle)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewStorageError("memory", "delete", ErrClosed)
	}
	if _, ok := s.resources[id]; !ok {
		return ErrNotFound
	}
	delete(s.resources, id)
	return nil
}

// Prune removes resources created before olderThan.
func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, NewStorageError("memory", "prune", ErrClosed)
	}

	var deleted int64
	for id, res := range s.resources {
		if res.CreatedAt.Before(olderThan) {
			delete(s.resources, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping fails only after Close.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageError("memory", "ping", ErrClosed)
	}
	return nil
}

// Close drops all resources.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = make(map[string]*Resource)
	s.closed = true
	return nil
}

// Len returns the number of stored resources.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// prepare copies res and fills the ID, URI, size and creation time.
func prepare(res *Resource, scheme string, now func() time.Time) (*Resource, error) {
	stored := res.clone()
	if stored.ID == "" {
		stored.ID, stored.URI = NewHandle(scheme)
	} else {
		id, err := ParseHandle(stored.ID)
		if err != nil {
			return nil, err
		}
		stored.ID = id
		stored.URI = FormatHandle(scheme, id)
	}
	if stored.ContentType == "" {
		stored.ContentType = ContentTypeJSON
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now().UTC()
	}
	stored.Size = int64(len(stored.Data))
	return stored, nil
}
