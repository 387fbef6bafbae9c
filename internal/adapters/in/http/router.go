package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bharathakku/delivery-backend/internal/pkg/auth"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterOptions collects what the HTTP surface is built from. NewRelic and
// Realtime are optional.
type RouterOptions struct {
	Server   *Server
	Tokens   *auth.Manager
	Resolver ActorResolver
	Spec     *openapi3.T
	NewRelic *newrelic.Application
	Realtime echo.HandlerFunc
	Logger   *slog.Logger
}

// NewRouter builds the echo instance serving /api, /ws, /health and the API docs.
func NewRouter(opts RouterOptions) (*echo.Echo, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := registerSwaggerDoc(opts.Spec); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(context.Background(), level, "request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, opts.Spec)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if opts.Realtime != nil {
		e.GET("/ws", opts.Realtime)
	}

	api := e.Group("/api",
		NewRelic(opts.NewRelic),
		Authenticate(opts.Tokens, opts.Resolver),
		ValidateRequests(opts.Spec),
	)
	opts.Server.Register(api)

	return e, nil
}
