// Package httpapi exposes the scheduling engine over HTTP. Handlers
// translate between JSON and the service layer; authorization decisions
// are limited to the professional scope check, with authentication
// handled upstream.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type ServerConfig struct {
	RequestTimeout time.Duration
}

// NewServer assembles the echo instance with the ambient middleware and
// all API routes mounted under /api/v1.
func NewServer(cfg ServerConfig, log *slog.Logger, agendaH *AgendaHandler, apptH *AppointmentsHandler) *echo.Echo {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(requestLogger(log))
	e.Use(requestTimeout(cfg.RequestTimeout))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	agendaH.RegisterRoutes(api)
	apptH.RegisterRoutes(api)

	return e
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			log.Info("http request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("duration", time.Since(start)),
			)
			return nil
		}
	}
}

// requestTimeout puts a deadline on each request context unless the
// caller already set one.
func requestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Request().Context().Deadline(); ok {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
