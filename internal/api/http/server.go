package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

const serviceName = "hko-weather-proxy"

// NewApp builds the Fiber app with the global middleware and error mapping.
// Routes are added by RegisterRoutes.
func NewApp(logger logrus.FieldLogger) *fiber.App {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Long enough for a full retry sequence against a slow upstream.
		WriteTimeout: 60 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger(logger))
	app.Use(recover.New())

	return app
}

// requestLogger logs one entry per request with its outcome.
func requestLogger(logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil {
			status = fiber.StatusInternalServerError
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		entry := logger.WithFields(logrus.Fields{
			"requestID": c.GetRespHeader(fiber.HeaderXRequestID),
			"method":    c.Method(),
			"path":      c.Path(),
			"status":    status,
			"duration":  time.Since(start).String(),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request served")
		}
		return err
	}
}

// errorHandler maps domain errors to status codes and JSON bodies.
func errorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			fe        *fiber.Error
			exhausted *weather.FetchExhaustedError
		)

		switch {
		case errors.Is(err, weather.ErrInvalidDataType):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":          "Invalid data type",
				"availableTypes": weather.DataTypes,
			})

		case errors.Is(err, weather.ErrInvalidLanguage):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":              "Invalid language",
				"availableLanguages": weather.Languages,
			})

		case errors.As(err, &exhausted):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":    "Upstream unavailable",
				"dataType": exhausted.DataType,
				"lang":     exhausted.Language,
				"attempts": exhausted.Attempts,
				"details":  exhausted.Error(),
			})

		case errors.Is(err, context.DeadlineExceeded):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error":   "Gateway Timeout",
				"details": err.Error(),
			})

		case errors.As(err, &fe):
			if fe.Code == fiber.StatusNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error":   "Not Found",
					"message": "Available endpoints: /weather/info",
				})
			}
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   true,
				"message": fe.Message,
			})
		}

		logger.WithError(err).WithField("path", c.Path()).Error("error in weather API")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"details": err.Error(),
		})
	}
}
