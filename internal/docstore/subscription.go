package docstore

import (
	"context"
	"errors"
	"sync"
)

type subscription struct {
	cancel context.CancelFunc
	stream Stream
	done   chan struct{}
	once   sync.Once
	err    error
}

// subscribe opens the stream before loading the initial snapshot so that no
// change committed in between is missed. A missing document loads as an empty
// snapshot at revision zero.
func subscribe(ctx context.Context, feed Feed, key string, load func(context.Context) (Snapshot, error), onSnapshot func(Document), onError func(error)) (Subscription, error) {
	stream, err := feed.Listen(ctx, key)
	if err != nil {
		return nil, err
	}

	// Subscriptions outlive the request that opened them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	initial, err := load(runCtx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		cancel()
		_ = stream.Close()
		return nil, err
	}
	if initial.Doc == nil {
		initial.Doc = Document{}
	}

	s := &subscription{cancel: cancel, stream: stream, done: make(chan struct{})}
	go s.run(runCtx, initial, onSnapshot, onError)
	return s, nil
}

// run delivers snapshots in revision order. Publishes race with each other
// and with the initial load, so anything at or below the last delivered
// revision is dropped.
func (s *subscription) run(ctx context.Context, initial Snapshot, onSnapshot func(Document), onError func(error)) {
	defer close(s.done)

	onSnapshot(initial.Doc)
	last := initial.Rev
	for {
		snap, err := s.stream.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return
			}
			if onError != nil {
				onError(err)
			}
			continue
		}
		if snap.Rev <= last {
			continue
		}
		last = snap.Rev
		if snap.Doc == nil {
			snap.Doc = Document{}
		}
		onSnapshot(snap.Doc)
	}
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.err = s.stream.Close()
		<-s.done
	})
	return s.err
}
