package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

type relayEnvelope struct {
	Origin string          `json:"origin"`
	Topic  string          `json:"topic"`
	Data   json.RawMessage `json:"data"`
}

// RedisRelay shares published events between service instances. Each
// instance forwards its own publishes to Redis and delivers the ones coming
// from other instances to its local subscribers.
type RedisRelay struct {
	client *redis.Client
	prefix string
	origin string
	hub    *Hub

	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func NewRedisRelay(client *redis.Client, prefix string, h *Hub) *RedisRelay {
	return &RedisRelay{
		client: client,
		prefix: prefix,
		origin: uuid.NewString(),
		hub:    h,
	}
}

func (r *RedisRelay) Name() string {
	return "redis"
}

func (r *RedisRelay) Forward(ctx context.Context, topic string, data []byte) error {
	payload, err := json.Marshal(relayEnvelope{Origin: r.origin, Topic: topic, Data: data})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.prefix+topic, payload).Err()
}

// Start subscribes to every relayed topic and returns once Redis has
// confirmed the subscription.
func (r *RedisRelay) Start(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, r.prefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s*: %w", r.prefix, err)
	}
	r.pubsub = pubsub

	r.wg.Add(1)
	go r.consume(pubsub.Channel())
	utils.InfoLogger.Printf("Redis relay listening on %s*", r.prefix)
	return nil
}

func (r *RedisRelay) consume(ch <-chan *redis.Message) {
	defer r.wg.Done()
	for msg := range ch {
		var env relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			utils.ErrorLogger.WithField("channel", msg.Channel).Warnf("malformed relay message: %v", err)
			continue
		}
		if env.Origin == r.origin {
			continue
		}
		r.hub.Deliver(env.Topic, env.Data)
	}
}

func (r *RedisRelay) Close() error {
	if r.pubsub == nil {
		return nil
	}
	err := r.pubsub.Close()
	r.wg.Wait()
	return err
}
