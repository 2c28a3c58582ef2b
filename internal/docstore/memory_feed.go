package docstore

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process Feed. Each stream keeps only the latest
// undelivered snapshot, so slow listeners skip straight to current state.
type MemoryFeed struct {
	mu        sync.Mutex
	listeners map[string]map[*memoryStream]struct{}
}

// NewMemoryFeed constructs an empty in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{listeners: make(map[string]map[*memoryStream]struct{})}
}

// Publish hands a copy of doc to every stream listening on key.
func (f *MemoryFeed) Publish(_ context.Context, key string, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.listeners[key] {
		s.offer(Snapshot{Rev: snap.Rev, Doc: snap.Doc.Clone()})
	}
	return nil
}

// Listen registers a new stream on key.
func (f *MemoryFeed) Listen(_ context.Context, key string) (Stream, error) {
	s := &memoryStream{
		feed:   f,
		key:    key,
		signal: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.listeners[key]
	if !ok {
		set = make(map[*memoryStream]struct{})
		f.listeners[key] = set
	}
	set[s] = struct{}{}
	return s, nil
}

// Listeners reports how many open streams exist for key.
func (f *MemoryFeed) Listeners(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners[key])
}

func (f *MemoryFeed) remove(s *memoryStream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.listeners[s.key]
	delete(set, s)
	if len(set) == 0 {
		delete(f.listeners, s.key)
	}
}

type memoryStream struct {
	feed *MemoryFeed
	key  string

	mu         sync.Mutex
	pending    Snapshot
	hasPending bool

	signal chan struct{}
	closed chan struct{}
	once   sync.Once
}

func (s *memoryStream) offer(snap Snapshot) {
	s.mu.Lock()
	s.pending = snap
	s.hasPending = true
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *memoryStream) Next(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		if s.hasPending {
			snap := s.pending
			s.pending = Snapshot{}
			s.hasPending = false
			s.mu.Unlock()
			return snap, nil
		}
		s.mu.Unlock()

		select {
		case <-s.signal:
		case <-s.closed:
			return Snapshot{}, ErrClosed
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

func (s *memoryStream) Close() error {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.closed)
	})
	return nil
}
