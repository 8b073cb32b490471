// Package cachesync keeps reference caches consistent across replicas.
//
// Every replica publishes the name of a reference table after changing it
// and reloads that table when another replica announces a change. Messages
// from the publishing replica itself are ignored since its cache was already
// updated in the write path.
package cachesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Reloader refreshes one reference cache from storage.
type Reloader interface {
	ReloadTable(ctx context.Context, table string) error
}

// Message is the payload published on the invalidation channel.
type Message struct {
	Table  string `json:"table"`
	Origin string `json:"origin"`
}

// Options configure a Bus.
type Options struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Bus publishes and receives cache invalidations over Redis pub/sub.
type Bus struct {
	rdb     *redis.Client
	channel string
	origin  string
	log     *slog.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Bus, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("cachesync: missing redis address")
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("cachesync: missing channel")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	origin := uuid.NewString()
	return &Bus{
		rdb:     rdb,
		channel: opts.Channel,
		origin:  origin,
		log:     slog.With("component", "cachesync", "origin", origin),
	}, nil
}

// Origin identifies this replica in published messages.
func (b *Bus) Origin() string { return b.origin }

// Invalidate announces that table changed.
func (b *Bus) Invalidate(ctx context.Context, table string) error {
	raw, err := json.Marshal(Message{Table: table, Origin: b.origin})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Listen subscribes to the channel and reloads tables changed by other
// replicas until ctx is cancelled. It returns once the subscription is
// confirmed; the receive loop runs in its own goroutine.
func (b *Bus) Listen(ctx context.Context, r Reloader) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				b.handle(ctx, r, m.Payload)
			}
		}
	}()
	return nil
}

func (b *Bus) handle(ctx context.Context, r Reloader, payload string) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.log.Warn("bad invalidation payload", "error", err)
		return
	}
	if msg.Origin == b.origin || msg.Table == "" {
		return
	}
	if err := r.ReloadTable(ctx, msg.Table); err != nil {
		b.log.Error("cache reload failed", "table", msg.Table, "from", msg.Origin, "error", err)
		return
	}
	b.log.Debug("cache reloaded", "table", msg.Table, "from", msg.Origin)
}

// Close releases the Redis connection.
func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
