package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FiberMiddleware logs one line per request and exposes a request-scoped logger
// through both c.Locals("logger") and the request's user context.
func FiberMiddleware(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals("request_id").(string)
		ctx, reqLogger := WithRequestID(c.UserContext(), base, requestID)
		reqLogger = reqLogger.With(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		ctx = WithContext(ctx, reqLogger)
		c.SetUserContext(ctx)
		c.Locals("logger", reqLogger)

		chainErr := c.Next()
		if chainErr != nil {
			// Let the error handler write the response so the logged status is the final one.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.IP()),
			zap.Int("body_size", len(c.Response().Body())),
		}
		if q := string(c.Request().URI().QueryString()); q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if chainErr != nil {
			fields = append(fields, zap.Error(chainErr))
		}

		msg := "HTTP Request"
		switch {
		case status >= 500:
			reqLogger.Error(msg, fields...)
		case status >= 400:
			reqLogger.Warn(msg, fields...)
		default:
			reqLogger.Info(msg, fields...)
		}
		return nil
	}
}

// FromFiber retrieves the request-scoped logger stored by FiberMiddleware.
func FromFiber(c *fiber.Ctx) *zap.Logger {
	if l, ok := c.Locals("logger").(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
