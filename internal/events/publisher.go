// Package events publishes account changes (soft delete, block, access updates) to a
// Redis stream for downstream consumers such as the push notification worker.
package events

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Kind of account event.
type Kind string

const (
	KindDeleted         Kind = "deleted"
	KindBlocked         Kind = "blocked"
	KindUnblocked       Kind = "unblocked"
	KindAccessesUpdated Kind = "accesses_updated"
	KindProfileUpdated  Kind = "profile_updated"
)

// AccountEvent one change made by ActorID (an admin, or the user itself) to UserID.
type AccountEvent struct {
	Kind     Kind
	UserID   int64
	ActorID  int64
	Accesses []string
	At       time.Time
}

type Publisher interface {
	Publish(ctx context.Context, ev AccountEvent) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AccountEvent) error { return nil }

// StreamPublisher appends events to a Redis stream with XADD.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher maxLen > 0 caps the stream approximately.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev AccountEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"kind":      string(ev.Kind),
			"user_id":   strconv.FormatInt(ev.UserID, 10),
			"actor_id":  strconv.FormatInt(ev.ActorID, 10),
			"accesses":  strings.Join(ev.Accesses, ","),
			"timestamp": strconv.FormatInt(ev.At.Unix(), 10),
		},
	}
	if p.maxLen > 0 {
		args.MaxLenApprox = p.maxLen
	}
	return p.client.XAdd(ctx, args).Err()
}
