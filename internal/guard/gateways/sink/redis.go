package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haukened/pageguard/internal/guard/domain"
)

// publisher is the subset of *redis.Client the sink uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

// RedisSink publishes each decision as JSON on a pub/sub channel.
type RedisSink struct {
	client  publisher
	channel string
	timeout time.Duration
	now     func() time.Time
}

// message is the payload written to the channel.
type message struct {
	domain.BlockDecision
	Time time.Time `json:"time"`
}

// NewRedisSink connects to addr lazily; go-redis dials on first use.
func NewRedisSink(addr, channel string) *RedisSink {
	return newRedisSink(redis.NewClient(&redis.Options{Addr: addr}), channel)
}

func newRedisSink(client publisher, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel, timeout: 2 * time.Second, now: time.Now}
}

func (s *RedisSink) Publish(ctx context.Context, d domain.BlockDecision) error {
	payload, err := json.Marshal(message{BlockDecision: d, Time: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", s.channel, err)
	}
	return nil
}

func (s *RedisSink) Close() error { return s.client.Close() }
