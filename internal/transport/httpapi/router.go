package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bomalloc/internal/contract"
)

// Config задаёт параметры HTTP-приложения.
type Config struct {
	AppName     string
	BodyLimit   int
	ReadTimeout time.Duration
}

// NewApp собирает fiber-приложение с маршрутами API.
func NewApp(cfg Config, h *Handler, logger *log.Entry) *fiber.App {
	if cfg.AppName == "" {
		cfg.AppName = "bom-service"
	}
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))

	RegisterRoutes(app, h)
	return app
}

// RegisterRoutes подключает маршруты сервиса. Маршрут без завершающего слэша тоже совпадает.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")
	api.Post("/materials/", h.Calculate)
}

// requestLogger пишет одну строку logrus на запрос.
func requestLogger(logger *log.Entry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// Ответ ещё не записан: его сформирует errorHandler.
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		entry := logger.WithFields(log.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if passID := c.GetRespHeader(HeaderPassID); passID != "" {
			entry = entry.WithField("pass_id", passID)
		}
		if status >= fiber.StatusInternalServerError {
			entry.Warn("http request")
		} else {
			entry.Debug("http request")
		}
		return err
	}
}

// errorHandler отдаёт ошибки fiber (404, 405, паника) в том же формате {"error": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(contract.ErrorResponse{Error: message})
}
