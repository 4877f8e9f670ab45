package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/bomalloc/internal/app"
)

const (
	envHTTPAddr            = "BOM_HTTP_ADDR"
	envGRPCAddr            = "BOM_GRPC_ADDR"
	envMetricsAddr         = "BOM_METRICS_ADDR"
	envStorageDriver       = "BOM_STORAGE_DRIVER"
	envPostgresDSN         = "BOM_POSTGRES_DSN"
	envPostgresAutoMigrate = "BOM_POSTGRES_AUTO_MIGRATE"
	envSeedFile            = "BOM_SEED_FILE"
	envRequestTimeout      = "BOM_REQUEST_TIMEOUT"
	envShutdownTimeout     = "BOM_SHUTDOWN_TIMEOUT"
	envKafkaBrokers        = "KAFKA_BROKERS"
	envKafkaTopic          = "BOM_KAFKA_TOPIC"
	envLogLevel            = "BOM_LOG_LEVEL"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не роняют запуск: остаётся значение по умолчанию и возвращается предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q: %v, using default", key, raw, err))
	}

	if v, ok := nonEmpty(lookup, envHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := nonEmpty(lookup, envGRPCAddr); ok {
		cfg.GRPCAddr = v
	}
	if v, ok := nonEmpty(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := nonEmpty(lookup, envStorageDriver); ok {
		cfg.StorageDriver = app.StorageDriver(strings.ToLower(v))
	}
	if v, ok := nonEmpty(lookup, envPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := nonEmpty(lookup, envPostgresAutoMigrate); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warn(envPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := nonEmpty(lookup, envSeedFile); ok {
		cfg.SeedFile = v
	}
	if v, ok := nonEmpty(lookup, envRequestTimeout); ok {
		parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warn(envRequestTimeout, v, err)
		} else {
			cfg.RequestTimeout = parsed
		}
	}
	if v, ok := nonEmpty(lookup, envShutdownTimeout); ok {
		parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warn(envShutdownTimeout, v, err)
		} else {
			cfg.ShutdownTimeout = parsed
		}
	}
	if v, ok := nonEmpty(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = app.ParseBrokers(v)
	}
	if v, ok := nonEmpty(lookup, envKafkaTopic); ok {
		cfg.KafkaTopic = v
	}

	return cfg, warnings
}

func nonEmpty(lookup envLookup, key string) (string, bool) {
	raw, ok := lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported bool value %q", raw)
	}
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, fmt.Errorf("%s", rule)
	}
	return value, nil
}
