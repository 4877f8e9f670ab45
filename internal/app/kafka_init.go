package app

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/bomalloc/internal/health"
	"github.com/vladislavdragonenkov/bomalloc/internal/messaging/kafka"
)

// ParseBrokers разбирает список брокеров через запятую, отбрасывая пустые элементы.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// initKafkaProducer создаёт producer, если брокеры заданы.
// Возвращает nil, nil при пустом списке брокеров.
func initKafkaProducer(brokers []string, topic string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers, topic)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithFields(log.Fields{
		"brokers": brokers,
		"topic":   producer.Topic(),
	}).Info("kafka producer initialized")
	return producer, nil
}

// closeKafkaProducer закрывает producer если он не nil.
func closeKafkaProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

// kafkaChecker сообщает degraded, если брокеры заданы, а producer поднять не удалось.
// Публикация необязательна, поэтому сервис остаётся готовым.
func kafkaChecker(producer *kafka.Producer) *healthcheck.FuncChecker {
	return healthcheck.NewOptionalChecker("kafka", func(context.Context) error {
		if producer == nil {
			return errors.New("kafka producer is not initialized")
		}
		return nil
	})
}
