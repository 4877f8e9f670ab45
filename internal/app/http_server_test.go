package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	healthcheck "github.com/vladislavdragonenkov/bomalloc/internal/health"
	"github.com/vladislavdragonenkov/bomalloc/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/bomalloc/internal/service/grpc"
	"github.com/vladislavdragonenkov/bomalloc/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/bomalloc/internal/version"
)

func findFreePort(t *testing.T) int {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func seededDeps(t *testing.T) runtimeDependencies {
	t.Helper()

	deps, err := initRuntimeDependencies(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
		SeedFile:      writeSeedFile(t, testSeed),
	}, log.WithField("test", "seeded"))
	require.NoError(t, err)
	return deps
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")
	port := findFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.ServiceName, version.GetVersion(), 0)
	healthHandler.RegisterChecker("storage", healthcheck.NewFuncChecker("storage", func(context.Context) error {
		return nil
	}))
	srv := startMetricsServer(ctx, fmt.Sprintf("127.0.0.1:%d", port), logger, healthHandler)
	require.NotNil(t, srv)

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/livez")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	for path, want := range map[string]string{
		"/metrics": "go_goroutines",
		"/healthz": `"status":"healthy"`,
		"/readyz":  "ready",
	} {
		resp, err := http.Get(base + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Contains(t, string(body), want, path)
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "shutdown"))
}

func TestNewHTTPApp_CalculatesFromSeededStorage(t *testing.T) {
	deps := seededDeps(t)
	svc := newMaterialsService(deps, nil, metrics.NewAllocationMetricsWithRegisterer(prometheus.NewRegistry()), log.WithField("test", "svc"))

	app := newHTTPApp(DefaultConfig(), svc, log.WithField("test", "http-app"))

	req := httptest.NewRequest(http.MethodPost, "/api/materials/", strings.NewReader(`[{"product": 1, "quantity": 2}]`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(httpapi.HeaderPassID))
	require.JSONEq(t, `{"result": [{
		"product_name": "Shirt",
		"product_qty": 2,
		"product_materials": [
			{"warehouse_id": 11, "material": "fabric", "qty": 2, "price": 10},
			{"warehouse_id": null, "material": "fabric", "qty": 1, "price": null}
		]
	}]}`, string(body))
}

func TestNewGRPCServer_HealthAndMaterials(t *testing.T) {
	deps := seededDeps(t)
	svc := newMaterialsService(deps, nil, nil, log.WithField("test", "svc"))
	server, healthServer := newGRPCServer(svc, log.WithField("test", "grpc"))

	listener := bufconn.Listen(1024 * 1024)
	go func() { _ = server.Serve(listener) }()
	defer server.Stop()

	dialer := func(context.Context, string) (net.Conn, error) { return listener.Dial() }
	//nolint:staticcheck // grpc.Dial is required for bufconn testing
	conn, err := grpc.Dial("bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcsvc.MaterialsServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	healthServer.SetServingStatus(grpcsvc.MaterialsServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcsvc.MaterialsServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
