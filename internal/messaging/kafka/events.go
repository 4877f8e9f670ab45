package kafka

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeAllocationCalculated EventType = "allocation.calculated"
)

// TopicAllocationEvents задаёт топик по умолчанию для событий распределения.
const TopicAllocationEvents = "bom.allocation.events"

// Заголовки сообщений Kafka.
const (
	HeaderEventType = "x-event-type"
	HeaderPassID    = "x-pass-id"
)

// AllocationEvent содержит итог прохода распределения. Количества и цены передаются
// десятичными строками, чтобы потребители не теряли точность.
type AllocationEvent struct {
	EventType  EventType          `json:"event_type"`
	PassID     string             `json:"pass_id"`
	Timestamp  time.Time          `json:"timestamp"`
	DurationMs int64              `json:"duration_ms"`
	TotalCost  decimal.Decimal    `json:"total_cost"`
	Products   []ProductAllocated `json:"products"`
	Depletion  []LotDrawn         `json:"depletion"`
	Shortfalls []MaterialShort    `json:"shortfalls"`
}

// ProductAllocated содержит сводку по одной позиции запроса.
type ProductAllocated struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// LotDrawn показывает, сколько списано из партии и сколько в ней осталось.
type LotDrawn struct {
	WarehouseID int64           `json:"warehouse_id"`
	MaterialID  int64           `json:"material_id"`
	Drawn       decimal.Decimal `json:"drawn"`
	Remainder   decimal.Decimal `json:"remainder"`
}

// MaterialShort описывает непокрытую потребность по материалу.
type MaterialShort struct {
	MaterialID int64           `json:"material_id"`
	Material   string          `json:"material"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewAllocationEvent собирает событие из сводки прохода.
func NewAllocationEvent(summary domain.AllocationSummary) *AllocationEvent {
	event := &AllocationEvent{
		EventType:  EventTypeAllocationCalculated,
		PassID:     summary.PassID,
		Timestamp:  summary.StartedAt.UTC(),
		DurationMs: summary.Duration.Milliseconds(),
		TotalCost:  summary.TotalCost(),
		Products:   make([]ProductAllocated, 0, len(summary.Results)),
		Depletion:  make([]LotDrawn, 0, len(summary.Depletion)),
		Shortfalls: make([]MaterialShort, 0, len(summary.Shortfalls)),
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	for _, r := range summary.Results {
		event.Products = append(event.Products, ProductAllocated{
			ProductID: r.ProductID,
			Name:      r.ProductName,
			Quantity:  r.Quantity,
			Cost:      r.Cost(),
			Shortfall: r.Shortfall(),
		})
	}
	for _, d := range summary.Depletion {
		event.Depletion = append(event.Depletion, LotDrawn{
			WarehouseID: d.LotID,
			MaterialID:  d.MaterialID,
			Drawn:       d.Drawn,
			Remainder:   d.Remainder,
		})
	}
	for _, s := range summary.Shortfalls {
		event.Shortfalls = append(event.Shortfalls, MaterialShort{
			MaterialID: s.MaterialID,
			Material:   s.Material,
			Quantity:   s.Quantity,
		})
	}

	return event
}
