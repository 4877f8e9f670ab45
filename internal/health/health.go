// Package health отдаёт /healthz, /livez и /readyz для ops-сервера.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status представляет статус компонента
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const defaultCheckTimeout = 2 * time.Second

// Check описывает результат проверки одного компонента.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response представляет ответ health check
type Response struct {
	Status        Status           `json:"status"`
	Service       string           `json:"service,omitempty"`
	Version       string           `json:"version,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker проверяет один компонент. Проверка должна уважать отмену ctx.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler собирает проверки компонентов и отдаёт их по HTTP.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	service   string
	version   string
	timeout   time.Duration
	startTime time.Time
}

// NewHandler создаёт health handler. Каждая проверка ограничена timeout (по умолчанию 2s).
func NewHandler(service, version string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &Handler{
		checkers:  make(map[string]Checker),
		service:   service,
		version:   version,
		timeout:   timeout,
		startTime: time.Now(),
	}
}

// RegisterChecker регистрирует проверку компонента
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Run выполняет все проверки параллельно и возвращает сводный статус.
// unhealthy у любого компонента делает весь сервис unhealthy, degraded только понижает статус.
func (h *Handler) Run(ctx context.Context) (Status, map[string]Check) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	checkers := make([]Checker, 0, len(h.checkers))
	for name, c := range h.checkers {
		names = append(names, name)
		checkers = append(checkers, c)
	}
	h.mu.RUnlock()

	results := make([]Check, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			results[i] = c.Check(checkCtx)
		}(i, c)
	}
	wg.Wait()

	overall := StatusHealthy
	checks := make(map[string]Check, len(results))
	for i, check := range results {
		checks[names[i]] = check
		switch {
		case check.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case check.Status == StatusDegraded && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}
	return overall, checks
}

// ServeHTTP отдаёт подробный JSON со статусом каждого компонента.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	overall, checks := h.Run(r.Context())

	response := Response{
		Status:        overall,
		Service:       h.service,
		Version:       h.version,
		Timestamp:     time.Now().UTC(),
		Checks:        checks,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// LivenessHandler простой liveness probe (всегда возвращает 200)
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler отвечает 503 и перечисляет неготовые компоненты, если хоть один unhealthy.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	overall, checks := h.Run(r.Context())
	if overall != StatusUnhealthy {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}

	failed := make([]string, 0, len(checks))
	for name, check := range checks {
		if check.Status == StatusUnhealthy {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
	for _, name := range failed {
		_, _ = w.Write([]byte(" " + name))
	}
}

// FuncChecker оборачивает функцию проверки. Если Optional, ошибка даёт degraded вместо unhealthy.
type FuncChecker struct {
	name     string
	optional bool
	checkFn  func(ctx context.Context) error
}

// NewFuncChecker создаёт обязательную проверку: ошибка делает сервис неготовым.
func NewFuncChecker(name string, checkFn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, checkFn: checkFn}
}

// NewOptionalChecker создаёт проверку необязательного компонента (например, брокера событий).
func NewOptionalChecker(name string, checkFn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, optional: true, checkFn: checkFn}
}

// Check выполняет проверку
func (c *FuncChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.checkFn(ctx)
	duration := time.Since(start)

	if err == nil {
		return Check{
			Name:       c.name,
			Status:     StatusHealthy,
			DurationMs: duration.Milliseconds(),
		}
	}

	status := StatusUnhealthy
	if c.optional {
		status = StatusDegraded
	}
	return Check{
		Name:       c.name,
		Status:     status,
		Message:    err.Error(),
		DurationMs: duration.Milliseconds(),
	}
}
