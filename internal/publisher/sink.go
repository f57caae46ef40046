package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/segmentio/kafka-go"
)

// Sink delivers encoded quotes. Key is the pair name.
type Sink interface {
	Send(ctx context.Context, key string, value []byte) error
	Close() error
}

// SaramaSink publishes quotes through a sarama synchronous producer.
type SaramaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewSaramaSink connects a synchronous producer to brokers.
func NewSaramaSink(brokers []string, topic string) (*SaramaSink, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewSaramaSinkWithProducer(producer, topic), nil
}

// NewSaramaSinkWithProducer wraps an existing producer.
func NewSaramaSinkWithProducer(producer sarama.SyncProducer, topic string) *SaramaSink {
	return &SaramaSink{producer: producer, topic: topic}
}

// Send blocks until the brokers acknowledge the message. The sarama sync
// producer has no per-call cancellation, so ctx is only checked up front.
func (s *SaramaSink) Send(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return err
}

func (s *SaramaSink) Close() error {
	return s.producer.Close()
}

// KafkaSink publishes quotes through a kafka-go writer.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a writer for topic on brokers. Connections are made
// lazily on the first Send.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (s *KafkaSink) Send(ctx context.Context, key string, value []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// LogSink writes quotes to a logger. It is used when no brokers are
// configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, key string, value []byte) error {
	s.logger.InfoContext(ctx, "quote",
		slog.String("pair", key),
		slog.String("payload", string(value)),
	)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
