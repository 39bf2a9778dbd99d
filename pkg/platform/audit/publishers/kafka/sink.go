// Package kafka ships audit events to a Kafka (or Redpanda) topic so they
// outlive the process. The sink is a fan-out target; the in-process store
// remains the queryable record.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "carebook/pkg/platform/audit"
)

const DefaultTopic = "carebook.audit"

type Sink struct {
	client *kgo.Client
	topic  string
}

type Option func(*settings)

type settings struct {
	topic      string
	partitions int32
	replicas   int16
}

func WithTopic(topic string) Option {
	return func(s *settings) {
		if topic != "" {
			s.topic = topic
		}
	}
}

// NewSink connects to the brokers and makes sure the topic exists.
func NewSink(ctx context.Context, brokers []string, opts ...Option) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka sink: no brokers configured")
	}
	cfg := settings{topic: DefaultTopic, partitions: 1, replicas: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(cfg.topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: create client: %w", err)
	}
	if err := ensureTopic(ctx, kadm.NewClient(client), cfg); err != nil {
		client.Close()
		return nil, err
	}
	return &Sink{client: client, topic: cfg.topic}, nil
}

func ensureTopic(ctx context.Context, admin *kadm.Client, cfg settings) error {
	resp, err := admin.CreateTopics(ctx, cfg.partitions, cfg.replicas, nil, cfg.topic)
	if err != nil {
		return fmt.Errorf("kafka sink: create topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("kafka sink: create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces one record keyed by user id so a user's events stay
// ordered within a partition.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka sink: encode event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka sink: produce: %w", err)
	}
	return nil
}

func (s *Sink) Topic() string {
	return s.topic
}

func (s *Sink) Close() {
	s.client.Close()
}
