package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"courier-portal/internal/core/cache"

	"github.com/segmentio/kafka-go"
)

const (
	// RedisChannelPrefix namespaces relayed channels on the Redis server.
	RedisChannelPrefix = "courier:"
	lastEventKeyPrefix = "realtime:last:"
	lastEventTTL       = 24 * time.Hour
)

// RedisSink publishes events on Redis pub/sub and remembers the last event per
// channel, so other processes and late joiners can observe changes.
type RedisSink struct {
	bus cache.PubSub
}

// NewRedisSink creates a RedisSink over a pub/sub capable cache.
func NewRedisSink(bus cache.PubSub) *RedisSink {
	return &RedisSink{bus: bus}
}

// Name implements Sink.
func (s *RedisSink) Name() string { return "redis" }

// Relay implements Sink.
func (s *RedisSink) Relay(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.bus.Publish(ctx, RedisChannelPrefix+e.Channel, payload); err != nil {
		return err
	}
	return s.bus.Set(ctx, lastEventKeyPrefix+e.Channel, payload, lastEventTTL)
}

// Close implements Sink.
func (s *RedisSink) Close() error {
	return s.bus.Close()
}

// LastEvent reads the last relayed event of channel. It returns nil, nil when
// nothing was relayed on that channel within the retention window. An entry
// that does not decode is deleted and reported once.
func LastEvent(ctx context.Context, c cache.Cache, channel string) (*Event, error) {
	data, err := c.Get(ctx, lastEventKeyPrefix+channel)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		// an unreadable entry is evicted so later reads see no event
		if delErr := c.Delete(ctx, lastEventKeyPrefix+channel); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &e, nil
}

// KafkaWriter is the subset of kafka.Writer the sink needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes every event to a topic keyed by channel, so events of one
// channel keep their order within a partition.
type KafkaSink struct {
	writer KafkaWriter
}

// NewKafkaSink creates a KafkaSink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}}
}

// NewKafkaSinkWithWriter allows injecting a test writer.
func NewKafkaSinkWithWriter(w KafkaWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

// Name implements Sink.
func (s *KafkaSink) Name() string { return "kafka" }

// Relay implements Sink.
func (s *KafkaSink) Relay(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.Channel),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
