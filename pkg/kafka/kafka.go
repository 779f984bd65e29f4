package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"
)

// Config holds Kafka connection details.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Publisher writes event messages to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Publisher. No connection is made until the first write.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafkago.LeastBytes{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafkago.RequireAll,
			WriteTimeout:           10 * time.Second,
		},
	}
}

// Publish writes body keyed by key.
func (p *Publisher) Publish(ctx context.Context, key string, body []byte) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Consume reads the topic as a member of cfg.GroupID and passes each message
// to handler. Offsets are committed whether or not handler succeeds, so a
// poison message cannot stall the group. It returns when ctx is done.
func Consume(ctx context.Context, cfg Config, handler func(msg kafkago.Message) error) error {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer reader.Close()

	log.Info().Str("topic", cfg.Topic).Str("group", cfg.GroupID).Msg("waiting for order events")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to read kafka message: %w", err)
		}

		if err := handler(msg); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Int("partition", msg.Partition).Msg("error processing message")
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit offset")
		}
	}
}
