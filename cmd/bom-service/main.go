package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bomalloc/internal/app"
	"github.com/vladislavdragonenkov/bomalloc/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	raw, ok := lookup(envLogLevel)
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		log.WithError(err).Warnf("некорректный %s, оставляем info", envLogLevel)
		return
	}
	log.SetLevel(level)
}

// loadDotEnv подхватывает .env из рабочего каталога. Отсутствие файла не ошибка,
// уже выставленные переменные окружения не перезаписываются.
func loadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	if err := loadDotEnv(); err != nil {
		log.WithError(err).Warn("не удалось прочитать .env")
	}
	setupLogger(os.LookupEnv)

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(version.Fields()).WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"grpc_addr":      cfg.GRPCAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"kafka_enabled":  len(cfg.KafkaBrokers) > 0,
	}).Info("запускаем сервис расчёта материалов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервис расчёта материалов остановлен")
}
