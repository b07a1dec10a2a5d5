package router

import (
	"github.com/labstack/echo/v4"

	"railbook/internal/handler"
	"railbook/internal/middleware"
)

// AdminHandlers groups all handlers mounted under /v1/admin.
type AdminHandlers struct {
	Stations     *handler.AdminStationHandler
	Routes       *handler.AdminRouteHandler
	Trains       *handler.AdminTrainHandler
	Schedules    *handler.AdminScheduleHandler
	Reservations *handler.AdminReservationHandler
	Payments     *handler.AdminPaymentHandler
	Reports      *handler.AdminReportHandler
	Users        *handler.AdminUserHandler
}

// RegisterAdmin registers the admin surface.  Every route requires a valid
// access token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/stations", h.Stations.Create)
	g.PUT("/stations/:id", h.Stations.Update)
	g.DELETE("/stations/:id", h.Stations.Delete)

	g.POST("/routes", h.Routes.Create)
	g.PUT("/routes/:id", h.Routes.Update)
	g.DELETE("/routes/:id", h.Routes.Delete)

	g.POST("/trains", h.Trains.Create)
	g.GET("/trains", h.Trains.List)
	g.GET("/trains/:id", h.Trains.Get)
	g.PUT("/trains/:id", h.Trains.Update)
	g.DELETE("/trains/:id", h.Trains.Delete)

	g.POST("/schedules", h.Schedules.Create)
	g.PATCH("/schedules/:id/status", h.Schedules.UpdateStatus)
	g.PATCH("/schedules/:id/fare", h.Schedules.UpdateFare)
	g.DELETE("/schedules/:id", h.Schedules.Delete)
	g.GET("/schedules/:id/reservations", h.Reservations.ListBySchedule)
	g.GET("/schedules/:id/occupancy", h.Reports.Occupancy)

	g.GET("/reservations/:id", h.Reservations.Get)
	g.DELETE("/reservations/:id", h.Reservations.Cancel)
	g.PATCH("/reservations/:id/status", h.Reservations.UpdateStatus)

	g.PATCH("/payments/:id/status", h.Payments.UpdateStatus)
	g.POST("/payments/:id/refund", h.Payments.Refund)

	g.GET("/reports/bookings", h.Reports.Bookings)

	g.PATCH("/users/:id/status", h.Users.UpdateStatus)
}
