package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickhawk/helpdesk/internal/api/http/handlers"
	"github.com/tickhawk/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	Companies      *handlers.CompaniesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/sign-out", cfg.Auth.SignOut)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/", auth.RequireCustomer(), cfg.Tickets.OpenTicket)
	tickets.Post("/:id/comments", auth.RequireCustomer(), cfg.Tickets.AddComment)
	tickets.Post("/:id/close", auth.RequireCustomer(), cfg.Tickets.CloseTicket)

	agent := app.Group("/agent/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	agent.Post("/:id/comments", cfg.Tickets.AddComment)
	agent.Post("/:id/close", cfg.Tickets.CloseTicket)
	agent.Post("/:id/review", cfg.AgentTickets.MarkInReview)
	agent.Post("/:id/transfer", cfg.AgentTickets.Transfer)

	admin := app.Group("/admin/companies", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/", cfg.Companies.Create)
	admin.Patch("/:id", cfg.Companies.Update)
	admin.Delete("/:id", cfg.Companies.Delete)
}
