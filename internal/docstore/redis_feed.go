package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "docstore:v2:"

// RedisFeed broadcasts snapshots over Redis pub/sub, one channel per document.
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed builds a feed on top of an existing Redis client.
func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

// Publish sends the full snapshot to the document's channel.
func (f *RedisFeed) Publish(ctx context.Context, key string, snap Snapshot) error {
	if snap.Doc == nil {
		snap.Doc = Document{}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := f.client.Publish(ctx, channelPrefix+key, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Listen subscribes to the document's channel and waits for Redis to confirm.
func (f *RedisFeed) Listen(ctx context.Context, key string) (Stream, error) {
	ps := f.client.Subscribe(ctx, channelPrefix+key)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}
	return &redisStream{ps: ps, ch: ps.Channel()}, nil
}

type redisStream struct {
	ps *redis.PubSub
	ch <-chan *redis.Message
}

func (s *redisStream) Next(ctx context.Context) (Snapshot, error) {
	select {
	case msg, ok := <-s.ch:
		if !ok {
			return Snapshot{}, ErrClosed
		}
		return decodeSnapshot([]byte(msg.Payload))
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func decodeSnapshot(payload []byte) (Snapshot, error) {
	var wire struct {
		Rev int64           `json:"rev"`
		Doc json.RawMessage `json:"doc"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	doc, err := Decode(wire.Doc)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Rev: wire.Rev, Doc: doc}, nil
}

func (s *redisStream) Close() error {
	return s.ps.Close()
}
