package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы прохода распределения для метки outcome.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeCatalogFailed = "catalog_failed"
	OutcomeCanceled      = "canceled"
)

// Виды строк распределения для метки kind.
const (
	LineKindStock     = "stock"
	LineKindShortfall = "shortfall"
)

// AllocationMetrics содержит метрики проходов распределения материалов.
type AllocationMetrics struct {
	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram
	lines        *prometheus.CounterVec

	shortfallQuantity prometheus.Counter
	unknownProducts   prometheus.Counter
	publishFailures   prometheus.Counter

	// Проходы, которые выполняются прямо сейчас.
	activePasses prometheus.Gauge
}

// NewAllocationMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewAllocationMetrics() *AllocationMetrics {
	return NewAllocationMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewAllocationMetricsWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewAllocationMetricsWithRegisterer(registerer prometheus.Registerer) *AllocationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &AllocationMetrics{
		passes: register(registerer, "bom_allocation_passes_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bom_allocation_passes_total",
			Help: "Total number of allocation passes by outcome",
		}, []string{"outcome"})),
		passDuration: register(registerer, "bom_allocation_pass_duration_seconds", prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bom_allocation_pass_duration_seconds",
			Help:    "Duration of allocation passes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		})),
		lines: register(registerer, "bom_allocation_lines_total", prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bom_allocation_lines_total",
			Help: "Total number of allocation lines emitted by kind",
		}, []string{"kind"})),
		shortfallQuantity: register(registerer, "bom_allocation_shortfall_quantity_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bom_allocation_shortfall_quantity_total",
			Help: "Total material quantity that could not be covered by stock",
		})),
		unknownProducts: register(registerer, "bom_allocation_unknown_products_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bom_allocation_unknown_products_total",
			Help: "Total number of requested products missing from the catalog",
		})),
		publishFailures: register(registerer, "bom_allocation_publish_failures_total", prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bom_allocation_publish_failures_total",
			Help: "Total number of allocation events that failed to publish",
		})),
		activePasses: register(registerer, "bom_allocation_active_passes", prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bom_allocation_active_passes",
			Help: "Number of allocation passes currently in progress",
		})),
	}
}

// register регистрирует коллектор или возвращает уже зарегистрированный того же типа.
func register[C prometheus.Collector](registerer prometheus.Registerer, name string, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		existing, ok := alreadyRegistered.ExistingCollector.(C)
		if !ok {
			panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector %q: %v", name, err))
}

// PassStarted отмечает начало прохода. Возвращённую функцию нужно вызвать по его завершении.
func (m *AllocationMetrics) PassStarted() func() {
	if m == nil {
		return func() {}
	}
	m.activePasses.Inc()
	return m.activePasses.Dec
}

// RecordPass учитывает завершённый проход с заданным исходом.
func (m *AllocationMetrics) RecordPass(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(duration.Seconds())
}

// RecordLines учитывает строки распределения и объём нехватки.
func (m *AllocationMetrics) RecordLines(stock, shortfall int, shortfallQty float64) {
	if m == nil {
		return
	}
	if stock > 0 {
		m.lines.WithLabelValues(LineKindStock).Add(float64(stock))
	}
	if shortfall > 0 {
		m.lines.WithLabelValues(LineKindShortfall).Add(float64(shortfall))
	}
	if shortfallQty > 0 {
		m.shortfallQuantity.Add(shortfallQty)
	}
}

// RecordUnknownProducts учитывает изделия, которых нет в справочнике.
func (m *AllocationMetrics) RecordUnknownProducts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unknownProducts.Add(float64(n))
}

// RecordPublishFailure увеличивает счётчик неотправленных событий.
func (m *AllocationMetrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}
