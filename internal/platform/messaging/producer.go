// Package messaging publishes domain events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Apurer/farmasync/internal/platform/messaging"

// Envelope wraps every published event.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Typed is implemented by events that name themselves.
type Typed interface {
	EventType() string
}

// Writer is the subset of kafka.Writer used by the producer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON envelopes to a single topic.
type Producer struct {
	writer Writer
	topic  string
	source string
	tracer trace.Tracer
	logger *slog.Logger
}

// Option configures a Producer.
type Option func(*Producer)

// WithLogger sets the logger used for publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) {
		p.logger = logger
	}
}

// WithWriter replaces the Kafka writer, mainly for tests.
func WithWriter(w Writer) Option {
	return func(p *Producer) {
		p.writer = w
	}
}

// NewProducer builds a Kafka producer for topic. source identifies the emitting service.
func NewProducer(brokers []string, topic, source string, opts ...Option) *Producer {
	p := &Producer{
		topic:  topic,
		source: source,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.writer == nil {
		p.writer = &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		}
	}
	return p
}

// Publish wraps event in an Envelope and writes it keyed by key.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka producer not configured")
	}
	envelope := Envelope{
		ID:         uuid.NewString(),
		Source:     p.source,
		OccurredAt: time.Now().UTC(),
		Data:       event,
	}
	if typed, ok := event.(Typed); ok {
		envelope.Type = typed.EventType()
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(envelope.Type)},
		},
	}

	ctx, span := p.tracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(key),
			semconv.MessagingMessageID(envelope.ID),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, NewMessageCarrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if p.logger != nil {
			p.logger.WarnContext(ctx, "failed to publish event",
				slog.String("topic", p.topic),
				slog.String("event.type", envelope.Type),
				slog.String("error", err.Error()))
		}
		return err
	}
	return nil
}

// Close flushes pending messages.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Topic builds "<prefix>.<name>" skipping an empty prefix.
func Topic(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}
