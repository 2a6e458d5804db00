package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"EditaisScanner/internal/config"
	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// event is the message value published for every accepted notice.
type event struct {
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// Publisher writes accepted notices to a Kafka topic, keyed by link.
type Publisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.NoticeSink = (*Publisher)(nil)

// NewPublisher connects a writer to the configured brokers.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is not configured")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return newPublisher(writer, cfg.Topic, logger), nil
}

func newPublisher(writer messageWriter, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{writer: writer, topic: topic, now: time.Now, logger: logger}
}

// Deliver publishes the whole batch in one write.
func (p *Publisher) Deliver(ctx context.Context, notices []domain.Notice) error {
	if len(notices) == 0 {
		return nil
	}

	acceptedAt := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(notices))
	for _, notice := range notices {
		value, err := json.Marshal(event{Title: notice.Title, Link: notice.Link, AcceptedAt: acceptedAt})
		if err != nil {
			return fmt.Errorf("encode notice %s: %w", notice.Link, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(notice.Link),
			Value: value,
			Time:  acceptedAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Info("notices published", "topic", p.topic, "count", len(msgs))
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
