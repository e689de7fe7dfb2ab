// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// HeaderCorrelationID ties a response and its log lines to one request.
const HeaderCorrelationID = "X-Correlation-ID"

const correlationKey = "correlation_id"

func (s *Server) setupMiddleware() {
	s.echo.Use(CorrelationID())
	s.echo.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("handler panic",
				zap.String("correlation_id", correlationFrom(c)),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))
	if s.config.RequestLogging {
		s.echo.Use(RequestLogger(s.logger))
	}
	s.echo.Use(middleware.Secure())
	s.echo.Use(middleware.BodyLimit(BodyLimit))
}

// ============================================================================
// CORRELATION ID
// ============================================================================

// CorrelationID reuses the request's X-Correlation-ID or generates one,
// echoes it on the response and stores it on the context.
func CorrelationID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: HeaderCorrelationID,
		Generator:    uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(correlationKey, id)
		},
	})
}

func correlationFrom(c echo.Context) string {
	id, _ := c.Get(correlationKey).(string)
	return id
}

// ============================================================================
// REQUEST LOGGING
// ============================================================================

// RequestLogger logs one structured line per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("correlation_id", correlationFrom(c)),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// ============================================================================
// ERROR RESPONSES
// ============================================================================

// ErrorResponse is the JSON body of every non-streaming failure.
type ErrorResponse struct {
	StatusCode    int    `json:"statusCode"`
	Timestamp     string `json:"timestamp"`
	Path          string `json:"path"`
	CorrelationID string `json:"correlationId"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

// handleError renders errors as ErrorResponse. Internal errors are logged
// and reported without detail.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	} else {
		s.logger.Error("unhandled error",
			zap.String("correlation_id", correlationFrom(c)),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
	}

	body := ErrorResponse{
		StatusCode:    status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Path:          c.Request().URL.Path,
		CorrelationID: correlationFrom(c),
		Message:       message,
		Error:         http.StatusText(status),
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
