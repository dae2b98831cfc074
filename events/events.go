package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkwatch-be/models"
)

// StatusChanged is published after a report moves to Approved or Resolved
type StatusChanged struct {
	ReportID primitive.ObjectID `json:"reportId"`
	Kind     models.ReportKind  `json:"kind"`
	Status   models.Status      `json:"status"`
	ActorID  primitive.ObjectID `json:"actorId"`
	At       time.Time          `json:"at"`
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}

// RedisPublisher fans status changes out over a redis pub/sub channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) PublishStatusChanged(ctx context.Context, ev StatusChanged) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}

// Noop drops every event
type Noop struct{}

func (Noop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []StatusChanged
}

func (r *Recorder) PublishStatusChanged(_ context.Context, ev StatusChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []StatusChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusChanged{}, r.events...)
}
