package router

import (
	"github.com/labstack/echo/v4"

	"railbook/internal/handler"
	"railbook/internal/middleware"
)

// RegisterPassenger registers the authenticated passenger endpoints:
// reservations and payments.  Admins can use these too; the booking flow
// is identical, the admin surface adds oversight on top.
func RegisterPassenger(e *echo.Echo, res *handler.PassengerReservationHandler, pay *handler.PassengerPaymentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("PASSENGER", "ADMIN"))

	g.POST("/reservations", res.Create)
	g.GET("/my-reservations", res.ListMine)
	g.GET("/reservations/:id", res.Get)
	g.DELETE("/reservations/:id", res.Cancel)

	g.POST("/payments", pay.Create)
	g.GET("/my-payments", pay.ListMine)
	g.GET("/payments/:id", pay.Get)
}
