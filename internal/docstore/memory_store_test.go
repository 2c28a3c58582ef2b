package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshotRecorder struct {
	mu   sync.Mutex
	docs []Document
}

func (r *snapshotRecorder) record(doc Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
}

func (r *snapshotRecorder) last() Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.docs) == 0 {
		return nil
	}
	return r.docs[len(r.docs)-1]
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func TestMemoryStoreGetAndField(t *testing.T) {
	store, _ := NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "users", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutDocument(ctx, "users", "1001", Document{
		"email":    "a@b.com",
		"checking": map[string]any{"cardNumber": "1111"},
	}))

	doc, err := store.GetDocument(ctx, "users", "1001")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", doc.String("email"))

	v, ok, err := store.GetField(ctx, "users", "1001", "checking.cardNumber")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1111", v)

	_, ok, err = store.GetField(ctx, "users", "1001", "saving.cardNumber")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.GetField(ctx, "users", "nobody", "email")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreUpdate(t *testing.T) {
	store, _ := NewMemoryStore()
	ctx := context.Background()

	_, err := store.UpdateDocument(ctx, "users", "1001", func(Document) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutDocument(ctx, "users", "1001", Document{"name": "A"}))

	boom := errors.New("boom")
	_, err = store.UpdateDocument(ctx, "users", "1001", func(d Document) error {
		d.Set("name", "B")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := store.GetDocument(ctx, "users", "1001")
	require.NoError(t, err)
	assert.Equal(t, "A", doc.String("name"), "failed update must not be stored")

	updated, err := store.UpdateDocument(ctx, "users", "1001", func(d Document) error {
		d.Set("name", "C")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "C", updated.String("name"))
}

func TestMemoryStoreSubscribeDeliversInitialAndChanges(t *testing.T) {
	store, feed := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.PutDocument(ctx, "users", "1001", Document{"name": "A"}))

	rec := &snapshotRecorder{}
	sub, err := store.Subscribe(ctx, "users", "1001", rec.record, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "A", rec.last().String("name"))
	assert.Equal(t, 1, feed.Listeners(Key("users", "1001")))

	require.NoError(t, store.PutDocument(ctx, "users", "1001", Document{"name": "B", "saving": map[string]any{}}))
	require.Eventually(t, func() bool {
		last := rec.last()
		return last != nil && last.String("name") == "B"
	}, time.Second, 5*time.Millisecond)
	assert.True(t, rec.last().Has("saving"))

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, feed.Listeners(Key("users", "1001")))

	seen := rec.count()
	require.NoError(t, store.PutDocument(ctx, "users", "1001", Document{"name": "C"}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seen, rec.count(), "closed subscription must not deliver")
	assert.NoError(t, sub.Close(), "close is idempotent")
}

func TestMemoryStoreSubscribeMissingDocument(t *testing.T) {
	store, _ := NewMemoryStore()
	rec := &snapshotRecorder{}

	sub, err := store.Subscribe(context.Background(), "users", "ghost", rec.record, nil)
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.last())
}

func TestSubscriptionOutlivesOpeningContext(t *testing.T) {
	store, _ := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	rec := &snapshotRecorder{}

	sub, err := store.Subscribe(ctx, "users", "1001", rec.record, nil)
	require.NoError(t, err)
	defer sub.Close()
	cancel()

	require.NoError(t, store.PutDocument(context.Background(), "users", "1001", Document{"name": "late"}))
	require.Eventually(t, func() bool {
		last := rec.last()
		return last != nil && last.String("name") == "late"
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryStoreCreateDocument(t *testing.T) {
	store, _ := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, "users", "1001", Document{"name": "A"}))
	assert.ErrorIs(t, store.CreateDocument(ctx, "users", "1001", Document{"name": "B"}), ErrExists)

	doc, err := store.GetDocument(ctx, "users", "1001")
	require.NoError(t, err)
	assert.Equal(t, "A", doc.String("name"), "existing document must not be replaced")
}

func TestMemoryStoreCreateDocumentConcurrent(t *testing.T) {
	store, _ := NewMemoryStore()
	ctx := context.Background()

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.CreateDocument(ctx, "users", "1001", Document{"writer": i})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrExists)
	}
	assert.Equal(t, 1, created)
}

func TestSubscriptionDropsOutOfOrderSnapshots(t *testing.T) {
	feed := NewMemoryFeed()
	key := Key("users", "1001")
	load := func(context.Context) (Snapshot, error) {
		return Snapshot{Rev: 2, Doc: Document{"balance": "20"}}, nil
	}
	rec := &snapshotRecorder{}

	sub, err := subscribe(context.Background(), feed, key, load, rec.record, nil)
	require.NoError(t, err)
	defer sub.Close()
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	// Published before the initial load was read.
	require.NoError(t, feed.Publish(context.Background(), key, Snapshot{Rev: 1, Doc: Document{"balance": "10"}}))
	require.NoError(t, feed.Publish(context.Background(), key, Snapshot{Rev: 4, Doc: Document{"balance": "40"}}))
	require.Eventually(t, func() bool { return rec.last().String("balance") == "40" }, time.Second, 5*time.Millisecond)

	// A writer that committed earlier but published later.
	require.NoError(t, feed.Publish(context.Background(), key, Snapshot{Rev: 3, Doc: Document{"balance": "30"}}))
	require.NoError(t, feed.Publish(context.Background(), key, Snapshot{Rev: 5, Doc: Document{"balance": "50"}}))
	require.Eventually(t, func() bool { return rec.last().String("balance") == "50" }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var balances []string
	for _, doc := range rec.docs {
		balances = append(balances, doc.String("balance"))
	}
	assert.NotContains(t, balances, "10")
	assert.NotContains(t, balances, "30")
	assert.Equal(t, "20", balances[0])
}
