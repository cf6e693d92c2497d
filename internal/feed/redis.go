package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const subscriberBuffer = 100

// RedisFeed — Feed на Redis Pub/Sub. Каждая подписка держит свой PubSub.
type RedisFeed struct {
	client *redis.Client
	log    zerolog.Logger

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

func NewRedisFeed(client *redis.Client, log zerolog.Logger) *RedisFeed {
	return &RedisFeed{
		client: client,
		log:    log.With().Str("component", "feed").Logger(),
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

func (f *RedisFeed) Publish(ctx context.Context, channel string, s Signal) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	if err := f.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish signal: %w", err)
	}
	f.log.Debug().Str("channel", channel).Str("kind", s.Kind).Int64("revision", s.Revision).Msg("published")
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, channel string) (<-chan Signal, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, fmt.Errorf("feed closed")
	}
	pubsub := f.client.Subscribe(ctx, channel)
	f.subs[pubsub] = struct{}{}
	f.mu.Unlock()

	// Ждём подтверждения подписки, иначе ранние сигналы теряются.
	if _, err := pubsub.Receive(ctx); err != nil {
		f.release(pubsub)
		return nil, fmt.Errorf("failed to subscribe %s: %w", channel, err)
	}

	out := make(chan Signal, subscriberBuffer)
	go f.receive(ctx, channel, pubsub, out)
	return out, nil
}

func (f *RedisFeed) receive(ctx context.Context, channel string, pubsub *redis.PubSub, out chan<- Signal) {
	defer close(out)
	defer f.release(pubsub)

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var s Signal
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				f.log.Warn().Err(err).Str("channel", channel).Msg("failed to unmarshal signal")
				continue
			}

			select {
			case out <- s:
			default:
				// подписчик не успевает; он всё равно перечитает состояние на следующем сигнале
				f.log.Warn().Str("channel", channel).Msg("subscriber buffer full, signal dropped")
			}
		}
	}
}

func (f *RedisFeed) release(pubsub *redis.PubSub) {
	f.mu.Lock()
	_, ok := f.subs[pubsub]
	delete(f.subs, pubsub)
	f.mu.Unlock()

	if ok {
		_ = pubsub.Close()
	}
}

// Close закрывает все подписки. Клиент Redis остаётся за вызывающим.
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	f.closed = true
	subs := make([]*redis.PubSub, 0, len(f.subs))
	for ps := range f.subs {
		subs = append(subs, ps)
	}
	f.subs = make(map[*redis.PubSub]struct{})
	f.mu.Unlock()

	var errs []error
	for _, ps := range subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing feed: %v", errs)
	}
	return nil
}
