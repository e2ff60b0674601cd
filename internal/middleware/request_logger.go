package middleware

import (
	"time"

	"creditmart/internal/infra/logging"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger puts a request-scoped zap logger into the request context and logs one line per request.
// It must run after echo's RequestID middleware.
func RequestLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = req.Header.Get(echo.HeaderXRequestID)
			}

			l := base.With(zap.String("request_id", requestID))
			c.SetRequest(req.WithContext(logging.ContextWithLogger(req.Context(), l)))

			err := next(c)
			if err != nil {
				// echo のエラーハンドラに書かせてからステータスを拾う
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			}
			if userID, ok := c.Get(CtxUserIDKey).(string); ok && userID != "" {
				fields = append(fields, zap.String("user_id", userID))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				l.Error("request", fields...)
			case status >= 400:
				l.Warn("request", fields...)
			default:
				l.Info("request", fields...)
			}
			return nil
		}
	}
}
