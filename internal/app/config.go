package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/bomalloc/internal/messaging/kafka"
)

// StorageDriver выбирает реализацию CatalogRepository.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool
	// SeedFile указывает JSON со справочниками для загрузки при старте, пустое значение отключает загрузку.
	SeedFile string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Пустой KafkaBrokers выключает публикацию событий.
	KafkaBrokers []string
	KafkaTopic   string
}

// DefaultConfig возвращает базовые адреса и таймауты.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8000",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		RequestTimeout:      10 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		KafkaTopic:          kafka.TopicAllocationEvents,
	}
}

// Validate проверяет согласованность настроек до запуска серверов.
func (c Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc address is required"))
	}
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}

	return errors.Join(errs...)
}
