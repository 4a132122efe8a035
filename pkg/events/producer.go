// Package events publishes analytics lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/dealersight/dealersight/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventFetchCompleted   = "analytics.fetch.completed"
	EventCacheInvalidated = "dealership.cache.invalidated"
	EventCachePrewarmed   = "dealership.cache.prewarmed"
)

// AnalyticsEvent describes a coordinator operation for downstream consumers.
type AnalyticsEvent struct {
	EventType    string     `json:"event_type"`
	UserID       uuid.UUID  `json:"user_id"`
	DealershipID *uuid.UUID `json:"dealership_id,omitempty"`
	DateRange    string     `json:"date_range,omitempty"`
	FromCache    bool       `json:"from_cache,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// Producer handles Kafka event emission. A nil Producer is valid and drops
// every event, so callers never need to branch on whether Kafka is enabled.
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

// Publish publishes an analytics event. Publish failures are logged and
// swallowed; event emission never fails the operation that triggered it.
func (p *Producer) Publish(ctx context.Context, event *AnalyticsEvent) {
	if p == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Producer.Publish")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to marshal analytics event")
		return
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.UserID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": event.EventType,
		}).Error("Failed to publish analytics event")
		return
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"user_id":    event.UserID,
	}).Debug("Published analytics event")
}
