package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/observability"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// RegisterMiddlewares attaches error rendering, request logging and the
// per-request deadline, outermost first.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

const plainErrorKey = "plain_error_body"

// plainErrors makes failures of the route render as
// {"error": "<message>", "code": "<code>"} instead of the nested object.
func plainErrors(c *fiber.Ctx) error {
	c.Locals(plainErrorKey, true)
	return c.Next()
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			reqLogger := observability.LoggerFromContext(c.UserContext(), logger)
			if r := recover(); r != nil {
				reqLogger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := toResponseError(err)
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
				reqLogger.Error("request failed", zap.String("code", domainErr.Code), zap.Error(err))
			}

			body := fiber.Map{"code": domainErr.Code}
			if len(domainErr.Details) > 0 {
				body["details"] = domainErr.Details
			}
			if requestID, ok := c.Locals("request_id").(string); ok {
				body["request_id"] = requestID
			}
			if plain, _ := c.Locals(plainErrorKey).(bool); plain {
				body["error"] = domainErr.Message
			} else {
				body["message"] = domainErr.Message
				body = fiber.Map{"error": body}
			}
			c.Status(domainErr.HTTPStatus)
			err = c.JSON(body)
		}()
		return c.Next()
	}
}

// toResponseError also covers handlers that ran past the request deadline.
func toResponseError(err error) *apperrors.DomainError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewDomainError("REQUEST_TIMEOUT", "request timed out", fiber.StatusGatewayTimeout, nil)
	}
	return apperrors.ToDomainError(err)
}
