package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document exists for the requested key.
	ErrNotFound = errors.New("document not found")

	// ErrExists is returned by CreateDocument when the key is already taken.
	ErrExists = errors.New("document already exists")

	// ErrClosed signals that a change stream has been shut down.
	ErrClosed = errors.New("stream closed")
)

// Reader is the read side of the account document store.
type Reader interface {
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	// GetField fetches a single dotted-path value. A missing document or
	// field is reported as ok=false with a nil error.
	GetField(ctx context.Context, collection, id, path string) (value any, ok bool, err error)
	// Subscribe delivers the current snapshot and then one snapshot per change
	// until the returned Subscription is closed. Callbacks run on a single
	// goroutine owned by the subscription and must not call Close.
	Subscribe(ctx context.Context, collection, id string, onSnapshot func(Document), onError func(error)) (Subscription, error)
}

// Writer mutates documents and fans the new snapshot out to subscribers.
type Writer interface {
	PutDocument(ctx context.Context, collection, id string, doc Document) error
	// CreateDocument stores doc only when no document exists for the key.
	CreateDocument(ctx context.Context, collection, id string, doc Document) error
	UpdateDocument(ctx context.Context, collection, id string, fn func(Document) error) (Document, error)
}

// Store combines both sides.
type Store interface {
	Reader
	Writer
}

// Subscription is a live snapshot listener. Close stops delivery and waits for
// any in-flight callback to return.
type Subscription interface {
	Close() error
}

// Snapshot is one committed version of a document. Rev grows by one on every
// write to the document, so listeners can discard snapshots that arrive out
// of order.
type Snapshot struct {
	Rev int64    `json:"rev"`
	Doc Document `json:"doc"`
}

// Feed broadcasts document snapshots keyed by collection/id.
type Feed interface {
	Publish(ctx context.Context, key string, snap Snapshot) error
	Listen(ctx context.Context, key string) (Stream, error)
}

// Stream yields snapshots published after Listen returned.
type Stream interface {
	Next(ctx context.Context) (Snapshot, error)
	Close() error
}

// Key builds the feed key for a document.
func Key(collection, id string) string {
	return collection + "/" + id
}
