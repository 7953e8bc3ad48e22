package httpapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/hko-weather-proxy/internal/scheduler"
	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

var validate = validator.New()

// WeatherService is the part of weather.Service the handlers use.
type WeatherService interface {
	FetchWeatherData(ctx context.Context, dataType weather.DataType, lang weather.Language, useCache bool) (weather.Payload, error)
	GetSummary(ctx context.Context, lang weather.Language) (weather.Summary, error)
	CacheStatus() map[string]weather.EntryStatus
	ClearCache()
	DefaultLanguage() weather.Language
}

// Automation controls the periodic refresh task.
type Automation interface {
	Start() error
	Stop()
	Running() bool
	Config() scheduler.Config
}

// MetricsRenderer renders counters in Prometheus text format.
type MetricsRenderer interface {
	RenderPrometheus() string
}

// Handler serves the weather proxy routes.
type Handler struct {
	service    WeatherService
	automation Automation
	metrics    MetricsRenderer
}

// NewHandler creates a Handler. automation and metrics may be nil.
func NewHandler(service WeatherService, automation Automation, metrics MetricsRenderer) *Handler {
	return &Handler{service: service, automation: automation, metrics: metrics}
}

var projectedRoutes = []struct {
	path     string
	dataType weather.DataType
}{
	{"/current", weather.DataTypeCurrentReport},
	{"/forecast", weather.DataTypeLocalForecast},
	{"/9day", weather.DataTypeNineDayForecast},
	{"/warnings", weather.DataTypeWarningSummary},
	{"/detailed-warnings", weather.DataTypeWarningInfo},
	{"/special-tips", weather.DataTypeSpecialTips},
}

var availableEndpoints = []string{
	"/weather/current - Current weather data",
	"/weather/forecast - Weather forecast",
	"/weather/9day - 9-day forecast",
	"/weather/warnings - Weather warnings",
	"/weather/detailed-warnings - Detailed warnings",
	"/weather/special-tips - Special weather tips",
	"/weather/summary - Comprehensive summary",
	"/weather/data/{dataType} - Specific data type",
	"/weather/cache/status - Cache status",
	"/weather/cache/clear - Clear cache",
	"/weather/automation/start - Start automation",
	"/weather/automation/stop - Stop automation",
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	if h.metrics != nil {
		app.Get("/metrics", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
			return c.SendString(h.metrics.RenderPrometheus())
		})
	}

	w := app.Group("/weather")

	w.Get("/", func(c *fiber.Ctx) error {
		return h.serveProjected(c, weather.DataTypeCurrentReport, h.service.DefaultLanguage(), true)
	})

	for _, r := range projectedRoutes {
		dataType := r.dataType
		w.Get(r.path, func(c *fiber.Ctx) error {
			lang, err := parseLangQuery(c)
			if err != nil {
				return err
			}
			return h.serveProjected(c, dataType, lang, true)
		})
	}

	w.Get("/summary", func(c *fiber.Ctx) error {
		lang, err := parseLangQuery(c)
		if err != nil {
			return err
		}
		summary, err := h.service.GetSummary(c.UserContext(), lang)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	})

	w.Get("/data/:dataType", func(c *fiber.Ctx) error {
		dataType, err := weather.ParseDataType(c.Params("dataType"))
		if err != nil {
			return err
		}
		lang, err := parseLangQuery(c)
		if err != nil {
			return err
		}
		return h.serveProjected(c, dataType, lang, !c.QueryBool("refresh", false))
	})

	cacheStatus := func(c *fiber.Ctx) error {
		return c.JSON(h.service.CacheStatus())
	}
	w.Get("/cache/status", cacheStatus)
	w.Post("/cache/status", cacheStatus)

	cacheClear := func(c *fiber.Ctx) error {
		h.service.ClearCache()
		return c.JSON(fiber.Map{"message": "Cache cleared successfully"})
	}
	w.Get("/cache/clear", cacheClear)
	w.Post("/cache/clear", cacheClear)

	automationStart := func(c *fiber.Ctx) error {
		if h.automation == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "automation is not configured")
		}
		if err := h.automation.Start(); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message": "Automation started successfully",
			"running": h.automation.Running(),
		})
	}
	w.Get("/automation/start", automationStart)
	w.Post("/automation/start", automationStart)

	automationStop := func(c *fiber.Ctx) error {
		if h.automation == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "automation is not configured")
		}
		h.automation.Stop()
		return c.JSON(fiber.Map{
			"message": "Automation stopped successfully",
			"running": h.automation.Running(),
		})
	}
	w.Get("/automation/stop", automationStop)
	w.Post("/automation/stop", automationStop)

	w.Get("/info", h.info)
}

func (h *Handler) serveProjected(c *fiber.Ctx, dataType weather.DataType, lang weather.Language, useCache bool) error {
	payload, err := h.service.FetchWeatherData(c.UserContext(), dataType, lang, useCache)
	if err != nil {
		return err
	}
	return c.JSON(weather.Project(dataType, payload))
}

func (h *Handler) info(c *fiber.Ctx) error {
	dataTypes := make(map[weather.DataType]string, len(weather.DataTypes))
	for _, dt := range weather.DataTypes {
		dataTypes[dt] = dt.Description()
	}
	languages := make(map[weather.Language]string, len(weather.Languages))
	for _, l := range weather.Languages {
		languages[l] = l.Name()
	}

	info := fiber.Map{
		"availableEndpoints": availableEndpoints,
		"supportedDataTypes": dataTypes,
		"supportedLanguages": languages,
		"defaultLanguage":    h.service.DefaultLanguage(),
	}
	if h.automation != nil {
		cfg := h.automation.Config()
		info["automation"] = fiber.Map{
			"enabled":   cfg.Enabled,
			"running":   h.automation.Running(),
			"interval":  cfg.Interval.Milliseconds(),
			"endpoints": cfg.DataTypes,
		}
	}
	return c.JSON(info)
}

// langQuery holds the optional language query parameter.
type langQuery struct {
	Lang string `validate:"omitempty,oneof=en tc sc"`
}

// parseLangQuery returns the requested language, or "" so the service applies its default.
func parseLangQuery(c *fiber.Ctx) (weather.Language, error) {
	q := langQuery{Lang: c.Query("lang")}
	if err := validate.Struct(q); err != nil {
		return "", &weather.InvalidLanguageError{Value: q.Lang}
	}
	return weather.Language(q.Lang), nil
}
