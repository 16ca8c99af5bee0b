package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-guard/internal/observability"
	apperrors "github.com/spec-kit/storefront-guard/pkg/util"
)

// MiddlewareOptions tunes the global middleware chain.
type MiddlewareOptions struct {
	Timeout time.Duration
	// LoginPath is advertised on UNAUTHORIZED responses so API callers can
	// send the visitor to sign in.
	LoginPath string
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger wraps the error handler so it sees the final status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, opts MiddlewareOptions) {
	app.Use(observability.RequestLogger(logger, metrics))
	if opts.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(opts.Timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics, opts.LoginPath))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				details := domainErr.Details
				if domainErr.HTTPStatus == fiber.StatusUnauthorized && loginPath != "" {
					details = withRedirect(details, loginPath)
				}
				if len(details) > 0 {
					response["error"].(fiber.Map)["details"] = details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// withRedirect copies details, adding the login target unless one is set.
func withRedirect(details map[string]any, loginPath string) map[string]any {
	if _, ok := details["redirect"]; ok {
		return details
	}
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["redirect"] = loginPath
	return out
}
