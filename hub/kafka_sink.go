package hub

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink streams order events to a Kafka topic, keyed by hub topic so one
// customer's updates stay on one partition.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaSink) Name() string {
	return "kafka"
}

func (k *KafkaSink) Forward(ctx context.Context, topic string, data []byte) error {
	if topic != TopicOrders && !strings.HasPrefix(topic, orderStatusPrefix) {
		return nil
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(topic),
		Value: data,
		Headers: []kafka.Header{
			{Key: "hub-topic", Value: []byte(topic)},
		},
		Time: time.Now().UTC(),
	})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
