// Package httpapi отдаёт расчёт материалов по HTTP поверх gofiber/fiber.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bomalloc/internal/contract"
	"github.com/vladislavdragonenkov/bomalloc/internal/domain"
	"github.com/vladislavdragonenkov/bomalloc/internal/service/materials"
)

// HeaderPassID возвращает клиенту идентификатор прохода для сверки с логами и событиями.
const HeaderPassID = "X-Allocation-Pass-Id"

const defaultRequestTimeout = 10 * time.Second

// Handler обслуживает POST /api/materials/.
type Handler struct {
	calc    materials.Calculator
	timeout time.Duration
	logger  *log.Entry
}

// NewHandler создаёт обработчик. timeout<=0 заменяется значением по умолчанию.
func NewHandler(calc materials.Calculator, timeout time.Duration, logger *log.Entry) *Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{calc: calc, timeout: timeout, logger: logger}
}

// Calculate разбирает список позиций, выполняет расчёт и возвращает распределение.
func (h *Handler) Calculate(c *fiber.Ctx) error {
	demands, err := contract.ParseDemands(c.Body())
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	calc, err := h.calc.Calculate(ctx, demands)
	if err != nil {
		h.logger.WithError(err).Warn("materials calculation failed")
		return writeError(c, err)
	}

	c.Set(HeaderPassID, calc.PassID)
	return c.Status(fiber.StatusOK).JSON(contract.NewResponse(calc.Results))
}

// writeError переводит ошибку сервиса в код ответа и тело {"error": ...}.
func writeError(c *fiber.Ctx, err error) error {
	status, message := classify(err)
	return c.Status(status).JSON(contract.ErrorResponse{Error: message})
}

func classify(err error) (int, string) {
	var ve *contract.ValidationError
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Message
	case errors.Is(err, domain.ErrDemandsRequired):
		return fiber.StatusBadRequest, contract.MsgNoData
	case errors.Is(err, domain.ErrProductIDInvalid):
		return fiber.StatusBadRequest, contract.MsgProductNotPos
	case errors.Is(err, domain.ErrQuantityInvalid):
		return fiber.StatusBadRequest, contract.MsgQuantityNotPos
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Calculation timed out."
	case domain.IsCatalogUnavailable(err):
		return fiber.StatusServiceUnavailable, "Catalog is temporarily unavailable."
	default:
		return fiber.StatusInternalServerError, "Internal server error."
	}
}
