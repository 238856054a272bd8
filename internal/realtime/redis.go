package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel shared by all API instances.
const DefaultChannel = "absensi:events"

const (
	defaultRetryMin = 500 * time.Millisecond
	defaultRetryMax = 30 * time.Second
)

var errSubscriptionClosed = errors.New("redis subscription closed")

// RedisRelay publishes events on a Redis channel and feeds every message received
// on it into the local Hub, so each instance's viewers see every instance's events.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger

	subscribed atomic.Bool
	retryMin   time.Duration
	retryMax   time.Duration
}

// NewRedisRelay builds a relay over client.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisRelay{
		client:   client,
		channel:  channel,
		hub:      hub,
		log:      log,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
	}
}

// Subscribed reports whether Run currently holds a live subscription.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

// Publish sends the event through Redis. Local viewers get it directly when
// Redis rejects it or the relay is not subscribed.
func (r *RedisRelay) Publish(ctx context.Context, event string, payload any) {
	ev, err := NewEvent(event, payload)
	if err != nil {
		r.log.Error("encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		r.log.Warn("redis publish failed, delivering locally", zap.String("event", event), zap.Error(err))
		r.hub.Deliver(ev)
		return
	}
	if !r.subscribed.Load() {
		r.hub.Deliver(ev)
	}
}

// Run relays channel messages into the hub until ctx is done. A failed or
// dropped subscription is retried with exponential backoff.
func (r *RedisRelay) Run(ctx context.Context) {
	wait := r.retryMin
	for {
		subscribed, err := r.relay(ctx)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			wait = r.retryMin
		}
		r.log.Warn("realtime relay disconnected, retrying",
			zap.Duration("backoff", wait), zap.Error(err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		wait = min(wait*2, r.retryMax)
	}
}

// relay runs one subscription. It reports whether the subscription was established.
func (r *RedisRelay) relay(ctx context.Context) (bool, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for the subscription so events published right after Run starts are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.log.Info("realtime relay subscribed", zap.String("channel", r.channel))

	msgs := sub.Channel(redis.WithChannelHealthCheckInterval(30 * time.Second))
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-msgs:
			if !ok {
				return true, errSubscriptionClosed
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn("discarding malformed realtime message", zap.Error(err))
				continue
			}
			r.hub.Deliver(ev)
		}
	}
}
