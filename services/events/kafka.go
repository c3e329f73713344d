package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2/log"
)

// KafkaConfig holds producer settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes events synchronously so that a failed publish is visible to the caller
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a sync producer to the brokers
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers list is empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is empty")
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newKafkaPublisher(producer, cfg.Topic), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish keys messages by enrollment id so that one enrollment's events stay ordered
func (p *KafkaPublisher) Publish(ctx context.Context, event EnrollmentEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(event.EnrollmentID), 10)),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("Event-Type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	log.Debugw("enrollment event published",
		"type", event.Type,
		"enrollment_id", event.EnrollmentID,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// Close flushes and closes the producer
func (p *KafkaPublisher) Close() error {
	log.Info("closing Kafka producer")
	if err := p.producer.Close(); err != nil {
		log.Errorw("failed to close Kafka producer", "error", err)
		return err
	}
	return nil
}

func newSaramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second
	return config
}
