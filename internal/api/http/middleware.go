package http

import (
	"context"
	"errors"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/observability"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
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
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				var fe *fiber.Error
				if errors.As(err, &fe) {
					err = fiberError(fe)
				}
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
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

func fiberError(fe *fiber.Error) error {
	code := apperrors.CodeValidation
	switch {
	case fe.Code == fiber.StatusNotFound:
		code = apperrors.CodeNotFound
	case fe.Code >= fiber.StatusInternalServerError:
		code = apperrors.CodeInternal
	}
	return apperrors.NewDomainError(code, fe.Message, fe.Code, nil)
}

// authorityErrorMiddleware turns authority-area errors into redirects with a
// flash message. Authentication failures go to the login page with next,
// authorization failures to the landing page, missing resources to a 404 view.
func authorityErrorMiddleware(cookies auth.CookieWriter, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		domainErr := apperrors.ToDomainError(err)
		switch domainErr.Code {
		case apperrors.CodeTokenInvalid, apperrors.CodeStaleClaims:
			metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
			cookies.ClearAuthority(c)
			return handlers.RedirectWithMessage(c, loginLocation(c), domainErr.Message)
		case apperrors.CodeInsufficientRole,
			apperrors.CodeDepartmentMismatch,
			apperrors.CodeNoDepartmentAssigned,
			apperrors.CodeComplaintAccessDenied:
			metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
			return handlers.RedirectWithMessage(c, handlers.AuthorityLandingPath, domainErr.Message)
		case apperrors.CodeNotFound, apperrors.CodeUnknownDepartment:
			metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
			return handlers.Render(c, fiber.StatusNotFound, "authority/not_found", []string{domainErr.Message}, domainErr.Details)
		}
		return err
	}
}

func loginLocation(c *fiber.Ctx) string {
	if c.Method() != fiber.MethodGet {
		return handlers.AuthorityLoginPath + "?next=" + url.QueryEscape(c.Path())
	}
	return handlers.AuthorityLoginPath + "?next=" + url.QueryEscape(c.OriginalURL())
}

// citizenErrorMiddleware sends visitors without a citizen session to the portal login.
func citizenErrorMiddleware(cookies auth.CookieWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		if apperrors.HasCode(err, apperrors.CodeTokenInvalid) {
			cookies.ClearCitizen(c)
			return handlers.RedirectWithMessage(c, handlers.CitizenLoginPath, "Please log in to continue.")
		}
		return err
	}
}
