package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// Producer публикует события распределения в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewProducer создает синхронный idempotent producer.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // обязательно для идемпотентности

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newProducer(producer, topic), nil
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	if topic == "" {
		topic = TopicAllocationEvents
	}
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka-producer"),
	}
}

// Topic возвращает топик, в который пишет producer.
func (p *Producer) Topic() string {
	return p.topic
}

// PublishAllocation отправляет событие allocation.calculated с ключом pass id.
func (p *Producer) PublishAllocation(ctx context.Context, summary domain.AllocationSummary) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublishFailed, err)
	}

	event := NewAllocationEvent(summary)
	if err := p.PublishEvent(summary.PassID, event.EventType, event); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublishFailed, err)
	}
	return nil
}

// PublishEvent сериализует событие в JSON и отправляет его в топик producer'а.
func (p *Producer) PublishEvent(key string, eventType EventType, event any) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(eventData),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(eventType)},
			{Key: []byte(HeaderPassID), Value: []byte(key)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": p.topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     p.topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.AllocationPublisher = (*Producer)(nil)
