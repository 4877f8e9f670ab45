package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationPublisher передаёт результат прохода наружу (например, в Kafka).
type AllocationPublisher interface {
	// PublishAllocation должен быть идемпотентным по PassID.
	PublishAllocation(ctx context.Context, summary AllocationSummary) error
}

// AllocationSummary содержит сводку одного прохода распределения для публикации.
type AllocationSummary struct {
	PassID     string
	Results    []ProductResult
	Depletion  []LotDepletion
	Shortfalls []MaterialShortfall
	StartedAt  time.Time
	Duration   time.Duration
}

// MaterialShortfall описывает суммарную нехватку одного материала за проход.
type MaterialShortfall struct {
	MaterialID int64
	Material   string
	Quantity   decimal.Decimal
}

// TotalCost суммирует стоимость всех позиций прохода.
func (s AllocationSummary) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Results {
		total = total.Add(r.Cost())
	}
	return total
}
