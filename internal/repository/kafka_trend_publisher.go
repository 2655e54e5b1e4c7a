package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	pkgkafka "TrendPulse/pkg/kafka"
)

// batchProducer is the slice of *pkgkafka.Producer the publisher needs.
type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaTrendPublisher is the asynchronous TrendSink: trends go onto a topic and
// the ingestion consumer writes them to ClickHouse.
type KafkaTrendPublisher struct {
	producer batchProducer
	topic    string
	now      func() time.Time
}

func NewKafkaTrendPublisher(producer batchProducer, topic string) *KafkaTrendPublisher {
	return &KafkaTrendPublisher{producer: producer, topic: topic, now: time.Now}
}

// Store publishes one event per trend, keyed by lowercased text so a topic's
// history lands on one partition in order.
func (p *KafkaTrendPublisher) Store(ctx context.Context, trends []models.Trend) error {
	if len(trends) == 0 {
		return nil
	}

	produced := p.now().UTC()
	msgs := make([]pkgkafka.Message, 0, len(trends))
	for _, t := range trends {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(topicKey(t.Text)),
			Value: models.TrendEvent{
				EventID:    uuid.New(),
				Trend:      t,
				ProducedAt: produced,
			},
		})
	}

	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish %d trends: %w", len(trends), err)
	}
	return nil
}

func (p *KafkaTrendPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ repository.TrendSink = (*KafkaTrendPublisher)(nil)

func topicKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
