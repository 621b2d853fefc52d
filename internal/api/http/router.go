package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Authority      *handlers.AuthorityHandler
	Dashboard      *handlers.DashboardHandler
	Citizen        *handlers.CitizenHandler
	Guard          *auth.AuthorityGuard
	CitizenSession *auth.CitizenSession
	Cookies        auth.CookieWriter
	Metrics        *observability.Metrics
	MetricsHandler nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.MetricsHandler))
	}

	app.Get("/register", cfg.Citizen.RegisterPage)
	app.Post("/register", cfg.Citizen.Register)
	app.Get("/login", cfg.Citizen.LoginPage)
	app.Post("/login", cfg.Citizen.Login)
	app.Get("/logout", cfg.Citizen.Logout)

	citizen := []fiber.Handler{citizenErrorMiddleware(cfg.Cookies), cfg.CitizenSession.Handle}
	app.Get("/", append(citizen, cfg.Citizen.Home)...)
	app.Post("/submit-complaint", append(citizen, cfg.Citizen.Submit)...)
	app.Get("/my-complaints", append(citizen, cfg.Citizen.MyComplaints)...)

	authority := app.Group(auth.AuthorityPrefix, authorityErrorMiddleware(cfg.Cookies, cfg.Metrics))
	authority.Get("/login", cfg.Authority.LoginPage)
	authority.Post("/login", cfg.Authority.Login)
	authority.Get("/logout", cfg.Authority.Logout)
	authority.Post("/refresh", cfg.Authority.Refresh)
	authority.Get("/", cfg.Authority.Landing)

	anyDepartment := cfg.Guard.Require(auth.AnyDepartment())
	authority.Get("/"+auth.DashboardAlias, cfg.Guard.Require(auth.AdminDepartment()), cfg.Dashboard.Admin)
	authority.Get("/complaints/:id", anyDepartment, cfg.Dashboard.Detail)
	authority.Post("/complaints/:id", anyDepartment, cfg.Dashboard.Update)
	authority.Get("/:department", anyDepartment, cfg.Dashboard.Department)
}
