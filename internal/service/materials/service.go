// Package materials связывает справочники, ядро распределения и внешние побочные эффекты
// (метрики, логи, публикация событий) в одну операцию расчёта материалов.
package materials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bomalloc/internal/allocation"
	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
	"github.com/vladislavdragonenkov/bomalloc/internal/metrics"
)

const defaultPublishTimeout = 3 * time.Second

// Calculator описывает операцию расчёта, которую используют транспорты.
type Calculator interface {
	Calculate(ctx context.Context, demands []domain.Demand) (Calculation, error)
}

// Calculation содержит итог одного прохода распределения.
type Calculation struct {
	PassID          string
	Results         []domain.ProductResult
	Depletion       []domain.LotDepletion
	Shortfalls      []domain.MaterialShortfall
	UnknownProducts []int64
	StartedAt       time.Time
	Duration        time.Duration
}

// Summary собирает сводку для публикации.
func (c Calculation) Summary() domain.AllocationSummary {
	return domain.AllocationSummary{
		PassID:     c.PassID,
		Results:    c.Results,
		Depletion:  c.Depletion,
		Shortfalls: c.Shortfalls,
		StartedAt:  c.StartedAt,
		Duration:   c.Duration,
	}
}

// Service выполняет расчёт материалов поверх CatalogRepository.
type Service struct {
	catalog        domain.CatalogRepository
	publisher      domain.AllocationPublisher
	metrics        *metrics.AllocationMetrics
	logger         *log.Entry
	now            func() time.Time
	newPassID      func() string
	publishTimeout time.Duration
}

// Option настраивает Service.
type Option func(*Service)

// WithPublisher включает публикацию событий allocation.calculated.
func WithPublisher(p domain.AllocationPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics подключает prometheus-метрики. Без опции метрики не пишутся.
func WithMetrics(m *metrics.AllocationMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPassIDGenerator подменяет генератор идентификаторов прохода.
func WithPassIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newPassID = gen
		}
	}
}

// WithPublishTimeout ограничивает время отправки события.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// NewService создаёт сервис расчёта.
func NewService(catalog domain.CatalogRepository, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "materials")
	}
	s := &Service{
		catalog:        catalog,
		logger:         logger,
		now:            time.Now,
		newPassID:      func() string { return uuid.NewString() },
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate загружает справочники, выполняет один проход распределения и возвращает результат.
// Любая ошибка хранилища прерывает расчёт целиком: частичный результат не отдаётся.
// Ошибка публикации события только логируется.
func (s *Service) Calculate(ctx context.Context, demands []domain.Demand) (Calculation, error) {
	started := s.now()
	passID := s.newPassID()
	logger := s.logger.WithField("pass_id", passID)

	done := s.metrics.PassStarted()
	defer done()

	if err := validateDemands(demands); err != nil {
		s.metrics.RecordPass(metrics.OutcomeInvalid, s.now().Sub(started))
		return Calculation{}, err
	}

	pass, err := s.runPass(ctx, logger, demands)
	if err != nil {
		outcome := metrics.OutcomeCatalogFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		s.metrics.RecordPass(outcome, s.now().Sub(started))
		logger.WithError(err).Warn("allocation pass aborted")
		return Calculation{}, err
	}

	calc := Calculation{
		PassID:          passID,
		Results:         pass.Results,
		Depletion:       pass.Depletion,
		Shortfalls:      pass.Shortfalls,
		UnknownProducts: pass.UnknownProducts,
		StartedAt:       started,
		Duration:        s.now().Sub(started),
	}

	s.record(calc)
	s.logSummary(logger, calc)
	s.publish(ctx, logger, calc)

	return calc, nil
}

func (s *Service) runPass(ctx context.Context, logger *log.Entry, demands []domain.Demand) (allocation.Pass, error) {
	products, err := s.catalog.FindProductsByIDs(ctx, domain.ProductIDs(demands))
	if err != nil {
		return allocation.Pass{}, catalogError("load products", err)
	}

	known := make([]int64, 0, len(products))
	for _, id := range domain.ProductIDs(demands) {
		if _, ok := products[id]; ok {
			known = append(known, id)
		}
	}

	bom, err := s.catalog.FindBOMLines(ctx, known)
	if err != nil {
		return allocation.Pass{}, catalogError("load bill of materials", err)
	}

	exp := allocation.Expand(demands, bom)
	if logger.Logger.IsLevelEnabled(log.DebugLevel) {
		totals := make(map[string]string, len(exp.MaterialIDs()))
		for id, qty := range exp.Totals() {
			totals[fmt.Sprint(id)] = qty.String()
		}
		logger.WithField("material_totals", totals).Debug("bill of materials expanded")
	}

	lots, err := s.catalog.FindStockLots(ctx, exp.MaterialIDs())
	if err != nil {
		return allocation.Pass{}, catalogError("load stock lots", err)
	}

	return allocation.Execute(demands, products, exp, allocation.NewStockIndex(lots)), nil
}

func (s *Service) record(calc Calculation) {
	if s.metrics == nil {
		return
	}

	var stock, shortfall int
	for _, r := range calc.Results {
		for _, line := range r.Lines {
			if line.IsShortfall() {
				shortfall++
			} else {
				stock++
			}
		}
	}

	var shortQty float64
	for _, sf := range calc.Shortfalls {
		shortQty += sf.Quantity.InexactFloat64()
	}

	s.metrics.RecordLines(stock, shortfall, shortQty)
	s.metrics.RecordUnknownProducts(len(calc.UnknownProducts))
	s.metrics.RecordPass(metrics.OutcomeSuccess, calc.Duration)
}

func (s *Service) logSummary(logger *log.Entry, calc Calculation) {
	fields := log.Fields{
		"products":    len(calc.Results),
		"lots_used":   len(calc.Depletion),
		"total_cost":  calc.Summary().TotalCost().String(),
		"duration_ms": calc.Duration.Milliseconds(),
	}
	if len(calc.UnknownProducts) > 0 {
		fields["unknown_products"] = calc.UnknownProducts
	}

	entry := logger.WithFields(fields)
	if len(calc.Shortfalls) > 0 {
		materialIDs := make([]int64, 0, len(calc.Shortfalls))
		for _, sf := range calc.Shortfalls {
			materialIDs = append(materialIDs, sf.MaterialID)
		}
		entry.WithField("shortfall_materials", materialIDs).Info("allocation pass completed with shortfall")
		return
	}
	entry.Info("allocation pass completed")
}

func (s *Service) publish(ctx context.Context, logger *log.Entry, calc Calculation) {
	if s.publisher == nil {
		return
	}

	// Расчёт уже выполнен, отмена запроса не должна обрывать отправку события.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishAllocation(pubCtx, calc.Summary()); err != nil {
		s.metrics.RecordPublishFailure()
		logger.WithError(err).Warn("failed to publish allocation event")
	}
}

func validateDemands(demands []domain.Demand) error {
	if len(demands) == 0 {
		return domain.ErrDemandsRequired
	}
	for i, d := range demands {
		if errs := d.Validate(); len(errs) > 0 {
			return fmt.Errorf("demand %d: %w", i, errors.Join(errs...))
		}
	}
	return nil
}

func catalogError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrCatalogUnavailable, op, err)
}

var _ Calculator = (*Service)(nil)
