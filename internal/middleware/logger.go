package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Credential-bearing headers are
// redacted before they reach the log.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log.Debug("incoming request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Any("hdr", scrub(req.Header)),
			)

			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is known
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.String("ip", c.RealIP()),
			}
			if uid, ok := c.Get(CtxUserID).(string); ok {
				fields = append(fields, zap.String("user_id", uid))
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request failed", append(fields, zap.Error(err))...)
			case status >= http.StatusBadRequest:
				log.Warn("request rejected", append(fields, zap.Error(err))...)
			default:
				log.Info("request completed", fields...)
			}
			return nil
		}
	}
}

func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}
