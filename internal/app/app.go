package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/bomalloc/internal/health"
	"github.com/vladislavdragonenkov/bomalloc/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bomalloc/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/bomalloc/internal/service/grpc"
	"github.com/vladislavdragonenkov/bomalloc/internal/service/materials"
	"github.com/vladislavdragonenkov/bomalloc/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/bomalloc/internal/version"
)

// Run поднимает HTTP API, gRPC и ops-сервер метрик и блокируется до отмены ctx
// или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	producer, _ := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger.WithField("layer", "kafka"))
	defer closeKafkaProducer(producer, logger)

	svc := newMaterialsService(deps, producer, metrics.NewAllocationMetrics(), logger)

	fiberApp := newHTTPApp(cfg, svc, logger)
	grpcServer, healthServer := newGRPCServer(svc, logger)

	healthHandler := healthcheck.NewHandler(version.ServiceName, version.GetVersion(), 0)
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if len(cfg.KafkaBrokers) > 0 {
		healthHandler.RegisterChecker("kafka", kafkaChecker(producer))
	}

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("HTTP API слушает %s", httpLis.Addr())
		errCh <- fiberApp.Listener(httpLis)
	}()
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		runErr = ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
		}
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
	if err := fiberApp.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.WithError(err).Warn("http api shutdown with error")
	}
	shutdownHTTP(metricsSrv, logger)

	return runErr
}

// newMaterialsService собирает сервис расчёта; публикация включается только при живом producer.
func newMaterialsService(
	deps runtimeDependencies,
	producer *kafka.Producer,
	m *metrics.AllocationMetrics,
	logger *log.Entry,
) *materials.Service {
	opts := []materials.Option{materials.WithMetrics(m)}
	if producer != nil {
		opts = append(opts, materials.WithPublisher(producer))
	}
	return materials.NewService(deps.catalog, logger.WithField("layer", "materials"), opts...)
}

func newHTTPApp(cfg Config, svc materials.Calculator, logger *log.Entry) *fiber.App {
	httpLogger := logger.WithField("layer", "http")
	handler := httpapi.NewHandler(svc, cfg.RequestTimeout, httpLogger)
	return httpapi.NewApp(httpapi.Config{AppName: version.ServiceName}, handler, httpLogger)
}

func newGRPCServer(svc materials.Calculator, logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	grpcsvc.RegisterMaterialsServer(server, grpcsvc.NewMaterialsService(svc, logger.WithField("layer", "grpc")))
	grpcMetrics.InitializeMetrics(server)

	// grpcurl видит сервис через reflection.
	reflection.Register(server)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcsvc.MaterialsServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}

// stopGRPC ждёт завершения активных вызовов не дольше timeout.
func stopGRPC(server *grpc.Server, timeout time.Duration, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// startMetricsServer запускает ops-сервер: /metrics, /healthz, /livez, /readyz.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
