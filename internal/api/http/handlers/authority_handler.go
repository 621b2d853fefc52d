package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/service"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const (
	ViewAuthorityLogin   = "authority/login"
	ViewAuthorityLanding = "authority/landing"
	AuthorityLoginPath   = auth.AuthorityPrefix + "/login/"
	AuthorityLandingPath = auth.AuthorityPrefix + "/"
)

// AuthorityHandler serves the staff login, logout, refresh and landing pages.
type AuthorityHandler struct {
	service   *service.AuthorityService
	directory *directory.Directory
	cookies   auth.CookieWriter
	throttle  *LoginThrottle
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewAuthorityHandler constructs handler.
func NewAuthorityHandler(authorityService *service.AuthorityService, dir *directory.Directory, cookies auth.CookieWriter,
	throttle *LoginThrottle, logger *zap.Logger, metrics *observability.Metrics) *AuthorityHandler {
	return &AuthorityHandler{
		service:   authorityService,
		directory: dir,
		cookies:   cookies,
		throttle:  throttle,
		logger:    logger,
		metrics:   metrics,
	}
}

// LoginPage GET /authority/login.
func (h *AuthorityHandler) LoginPage(c *fiber.Ctx) error {
	return Render(c, fiber.StatusOK, ViewAuthorityLogin, nil, fiber.Map{"next": c.Query("next")})
}

// Login POST /authority/login. Failures re-render the login view and never set cookies.
func (h *AuthorityHandler) Login(c *fiber.Ctx) error {
	var req dto.AuthorityLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return Render(c, fiber.StatusBadRequest, ViewAuthorityLogin, []string{"Invalid login form."}, fiber.Map{"next": ""})
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}
	data := fiber.Map{"next": req.Next, "username": req.Username}

	if !h.throttle.Allow(c.IP()) {
		h.metrics.RecordLogin(observability.LoginThrottled)
		h.logger.Warn("authority login throttled", zap.String("ip", c.IP()))
		return Render(c, fiber.StatusTooManyRequests, ViewAuthorityLogin,
			[]string{"Too many login attempts. Please wait a minute and try again."}, data)
	}

	result, err := h.service.Login(c.UserContext(), service.AuthorityLoginInput{
		Username: req.Username,
		Password: req.Password,
		Next:     req.Next,
	})
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			return err
		}
		return Render(c, fiber.StatusOK, ViewAuthorityLogin, []string{domainErr.Message}, data)
	}

	h.cookies.SetAuthority(c, result.Tokens)
	return RedirectWithMessage(c, result.Redirect, "Welcome, "+result.Account.DisplayName()+".")
}

// Logout GET /authority/logout.
func (h *AuthorityHandler) Logout(c *fiber.Ctx) error {
	h.service.Logout(c.UserContext(), auth.AuthorityAccessToken(c), c.Cookies(auth.RefreshCookieName))
	h.cookies.ClearAuthority(c)
	return RedirectWithMessage(c, AuthorityLoginPath, "You have been logged out.")
}

// Refresh POST /authority/refresh.
func (h *AuthorityHandler) Refresh(c *fiber.Ctx) error {
	token, err := h.service.Refresh(c.UserContext(), c.Cookies(auth.RefreshCookieName))
	if err != nil {
		return err
	}
	h.cookies.SetAccess(c, token)
	return c.JSON(fiber.Map{"data": dto.RefreshResponse{ExpiresAt: token.ExpiresAt}})
}

// Landing GET /authority/ lists the departments.
func (h *AuthorityHandler) Landing(c *fiber.Ctx) error {
	entries := h.directory.Departments()
	items := make([]dto.DepartmentEntry, 0, len(entries))
	for _, entry := range entries {
		path, err := service.DashboardPath(entry.Department)
		if err != nil {
			return err
		}
		items = append(items, dto.DepartmentEntry{Code: entry.Code, Name: entry.Name, Path: path})
	}
	return Render(c, fiber.StatusOK, ViewAuthorityLanding, nil, fiber.Map{"departments": items})
}
