package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/greenhouse-project/support-service/internal/api/http/handlers"
	"github.com/greenhouse-project/support-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Ratings        *handlers.RatingHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	// Public rating surface: no bearer token, state checks only.
	public := api.Group("/public/tickets")
	public.Get("/:id/rating", cfg.Ratings.Info)
	public.Post("/:id/rate", cfg.Ratings.RatePublic)
	public.Get("/:id/rate-quick/:rating", cfg.Ratings.RateQuick)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/users/me", cfg.Auth.Me)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireAdmin(), cfg.Tickets.Delete)

	tickets.Post("/:id/assign", auth.RequireStaff(), cfg.Tickets.Assign)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/resolve", auth.RequireStaff(), cfg.Tickets.Resolve)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/rate", cfg.Ratings.Rate)

	tickets.Post("/:id/comments", cfg.Comments.AddComment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/attachments", cfg.Comments.AddAttachment)
	tickets.Get("/:id/attachments", cfg.Comments.ListAttachments)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Post("/recalculate-sla", cfg.Admin.RecalculateSLA)
	admin.Post("/fix-timestamps", cfg.Admin.FixTimestamps)
}
