package docstore

import (
	"context"
	"sync"
)

type memoryEntry struct {
	doc Document
	rev int64
}

type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
	feed *MemoryFeed
}

// NewMemoryStore builds an in-memory document store for tests and local
// development. Changes are broadcast on the returned feed.
func NewMemoryStore() (Store, *MemoryFeed) {
	feed := NewMemoryFeed()
	return &memoryStore{docs: make(map[string]memoryEntry), feed: feed}, feed
}

func (s *memoryStore) GetDocument(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.docs[Key(collection, id)]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.doc.Clone(), nil
}

func (s *memoryStore) GetField(ctx context.Context, collection, id, path string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.docs[Key(collection, id)]
	if !ok {
		return nil, false, nil
	}
	v, ok := entry.doc.Lookup(path)
	if !ok {
		return nil, false, nil
	}
	return cloneValue(v), true, nil
}

func (s *memoryStore) Subscribe(ctx context.Context, collection, id string, onSnapshot func(Document), onError func(error)) (Subscription, error) {
	key := Key(collection, id)
	load := func(context.Context) (Snapshot, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		entry, ok := s.docs[key]
		if !ok {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{Rev: entry.rev, Doc: entry.doc.Clone()}, nil
	}
	return subscribe(ctx, s.feed, key, load, onSnapshot, onError)
}

func (s *memoryStore) PutDocument(ctx context.Context, collection, id string, doc Document) error {
	key := Key(collection, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(ctx, key, doc)
}

func (s *memoryStore) CreateDocument(ctx context.Context, collection, id string, doc Document) error {
	key := Key(collection, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; ok {
		return ErrExists
	}
	return s.storeLocked(ctx, key, doc)
}

func (s *memoryStore) UpdateDocument(ctx context.Context, collection, id string, fn func(Document) error) (Document, error) {
	key := Key(collection, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	next := current.doc.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.storeLocked(ctx, key, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// storeLocked bumps the revision and publishes while s.mu is held, so
// listeners see writes in commit order.
func (s *memoryStore) storeLocked(ctx context.Context, key string, doc Document) error {
	stored := doc.Clone()
	if stored == nil {
		stored = Document{}
	}
	rev := s.docs[key].rev + 1
	s.docs[key] = memoryEntry{doc: stored, rev: rev}
	return s.feed.Publish(ctx, key, Snapshot{Rev: rev, Doc: stored})
}
