package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Message is the envelope written to every subscriber.
type Message struct {
	Topic  string          `json:"topic"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

type Subscriber interface {
	ID() string
	Send(data []byte) error
}

// Sink receives a copy of every published payload, e.g. to reach other
// instances or an event stream.
type Sink interface {
	Name() string
	Forward(ctx context.Context, topic string, data []byte) error
}

// Hub fans published payloads out to the subscribers of a topic. Delivery is
// best effort: nothing is queued and a failing subscriber is dropped without
// affecting the others.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]Subscriber
	subs   map[string]Subscriber

	sinkMu sync.RWMutex
	sinks  []Sink
}

func NewHub(sinks ...Sink) *Hub {
	return &Hub{
		topics: make(map[string]map[string]Subscriber),
		subs:   make(map[string]Subscriber),
		sinks:  sinks,
	}
}

func (h *Hub) AddSink(s Sink) {
	h.sinkMu.Lock()
	defer h.sinkMu.Unlock()
	h.sinks = append(h.sinks, s)
}

func (h *Hub) Subscribe(sub Subscriber, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.ID()]; !ok {
		h.subs[sub.ID()] = sub
		subscribersGauge.Inc()
	}
	for _, topic := range topics {
		set, ok := h.topics[topic]
		if !ok {
			set = make(map[string]Subscriber)
			h.topics[topic] = set
		}
		set[sub.ID()] = sub
	}
}

// Unsubscribe removes the subscriber from every topic.
func (h *Hub) Unsubscribe(sub Subscriber) {
	h.unsubscribeID(sub.ID())
}

func (h *Hub) unsubscribeID(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[id]; !ok {
		return
	}
	delete(h.subs, id)
	subscribersGauge.Dec()
	for topic, set := range h.topics {
		delete(set, id)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish delivers payload to local subscribers and forwards it to every
// sink. Only a payload that cannot be encoded is reported as an error.
func (h *Hub) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", topic, err)
	}

	h.Deliver(topic, data)
	h.forward(ctx, topic, data)
	return nil
}

// Deliver sends already encoded data to local subscribers only and returns
// how many accepted it. Subscribers are written to concurrently, so a stalled
// connection delays nobody but itself.
func (h *Hub) Deliver(topic string, data []byte) int {
	msg, err := json.Marshal(Message{Topic: topic, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		utils.ErrorLogger.WithField("topic", topic).Errorf("encode envelope: %v", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.topics[topic]))
	for _, sub := range h.topics[topic] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	kind := topicKind(topic)
	for _, sub := range targets {
		wg.Add(1)
		go func(sub Subscriber) {
			defer wg.Done()
			if err := sub.Send(msg); err != nil {
				deliveriesTotal.WithLabelValues(kind, "error").Inc()
				utils.ErrorLogger.WithFields(logrus.Fields{
					"topic":      topic,
					"subscriber": sub.ID(),
				}).Warnf("dropping subscriber: %v", err)
				h.unsubscribeID(sub.ID())
				return
			}
			deliveriesTotal.WithLabelValues(kind, "ok").Inc()
			delivered.Add(1)
		}(sub)
	}
	wg.Wait()
	return int(delivered.Load())
}

func (h *Hub) forward(ctx context.Context, topic string, data []byte) {
	h.sinkMu.RLock()
	sinks := append([]Sink(nil), h.sinks...)
	h.sinkMu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Forward(ctx, topic, data); err != nil {
			sinkForwardsTotal.WithLabelValues(sink.Name(), "error").Inc()
			utils.ErrorLogger.WithFields(logrus.Fields{
				"topic": topic,
				"sink":  sink.Name(),
			}).Warnf("forward failed: %v", err)
			continue
		}
		sinkForwardsTotal.WithLabelValues(sink.Name(), "ok").Inc()
	}
}
