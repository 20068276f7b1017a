package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"profile-service/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is notified after a profile has been stored.
type Publisher interface {
	PublishProfileCreated(ctx context.Context, p *domain.Profile) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishProfileCreated(context.Context, *domain.Profile) error { return nil }

// Fanout publishes to every publisher and logs individual failures.
type Fanout struct {
	publishers []Publisher
	logger     *zap.Logger
}

func NewFanout(logger *zap.Logger, publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers, logger: logger}
}

func (f *Fanout) PublishProfileCreated(ctx context.Context, p *domain.Profile) error {
	var first error
	for _, pub := range f.publishers {
		if err := pub.PublishProfileCreated(ctx, p); err != nil {
			f.logger.Warn("profile event publish failed", zap.String("profile_id", p.ID), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON profile events keyed by profile id.
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(msg, args...))
		}),
	}
}

func NewKafkaPublisher(w MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

func (k *KafkaPublisher) PublishProfileCreated(ctx context.Context, p *domain.Profile) error {
	data, err := json.Marshal(domain.ProfileEvent{Type: domain.EventProfileCreated, Profile: p})
	if err != nil {
		return fmt.Errorf("marshal profile event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(p.ID),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(domain.EventProfileCreated)},
		},
	}); err != nil {
		return fmt.Errorf("write profile event: %w", err)
	}
	k.logger.Debug("profile event published", zap.String("profile_id", p.ID))
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
