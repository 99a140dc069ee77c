package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Users           *handlers.UsersHandler
	Staff           *handlers.StaffHandler
	Complaints      *handlers.ComplaintsHandler
	StaffComplaints *handlers.StaffComplaintsHandler
	Notifications   *handlers.NotificationsHandler
	Ops             *handlers.OpsHandler
	AuthMiddleware  *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Staff.ChangePassword)

	citizen := app.Group("/complaints", cfg.AuthMiddleware.Handle, auth.RequireUser())
	citizen.Post("", cfg.Complaints.Create)
	citizen.Get("", cfg.Complaints.List)
	citizen.Get("/:id", cfg.Complaints.Get)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/complaints", cfg.StaffComplaints.List)
	staff.Get("/complaints/:id", cfg.StaffComplaints.Get)
	staff.Post("/complaints/:id/assign", cfg.StaffComplaints.Assign)
	staff.Put("/complaints/:id/status", cfg.StaffComplaints.UpdateStatus)
	staff.Put("/complaints/:id/priority", cfg.StaffComplaints.ChangePriority)

	admin := staff.Group("", auth.RequireStaffRole(domain.StaffRoleAdmin))
	admin.Post("/members", cfg.Staff.CreateStaff)
	admin.Get("/members", cfg.Staff.ListStaff)
	admin.Get("/members/:id", cfg.Staff.GetStaff)
	admin.Put("/members/:id/availability", cfg.Staff.UpdateAvailability)
	admin.Get("/ops/metrics", cfg.Ops.Metrics)
	admin.Post("/ops/tasks/:name/run", cfg.Ops.RunTask)
}
