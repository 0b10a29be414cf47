package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// KafkaForwarder is a wildcard event handler that publishes every ledger
// event to a Kafka topic, keyed by aggregate id so one bill's events stay
// on one partition
type KafkaForwarder struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaForwarder wraps an existing producer
func NewKafkaForwarder(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{producer: producer, topic: topic, logger: logger}
}

// NewKafkaProducer builds a sync producer from the events config
func NewKafkaProducer(cfg config.EventsConfig) (sarama.SyncProducer, error) {
	acks, err := parseRequiredAcks(cfg.RequiredAcks)
	if err != nil {
		return nil, err
	}

	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.RequiredAcks = acks
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = 5
	sc.Producer.Retry.Backoff = 200 * time.Millisecond
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Idempotent = acks == sarama.WaitForAll
	if sc.Producer.Idempotent {
		sc.Net.MaxOpenRequests = 1
		sc.Version = sarama.V2_8_0_0
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// EventTypes subscribes to everything
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Handle sends one event and waits for the broker acknowledgement
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	msg := &sarama.ProducerMessage{
		Topic: f.topic,
		Key:   sarama.StringEncoder(event.AggregateID().String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType())},
			{Key: []byte("event_id"), Value: []byte(event.EventID().String())},
			{Key: []byte("aggregate_type"), Value: []byte(event.AggregateType())},
		},
		Timestamp: event.OccurredAt(),
	}

	partition, offset, err := f.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s to kafka: %w", event.EventType(), err)
	}
	f.logger.Debug("event forwarded to kafka",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close closes the producer
func (f *KafkaForwarder) Close() error {
	return f.producer.Close()
}

func parseRequiredAcks(v string) (sarama.RequiredAcks, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none", "no_response", "0":
		return sarama.NoResponse, nil
	case "leader", "local", "wait_for_local", "1":
		return sarama.WaitForLocal, nil
	case "", "all", "wait_for_all", "-1":
		return sarama.WaitForAll, nil
	default:
		return sarama.WaitForAll, fmt.Errorf("invalid kafka required acks: %s", v)
	}
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
