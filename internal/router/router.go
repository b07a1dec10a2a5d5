// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"railbook/internal/handler"
	"railbook/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register, login
// and refresh live under /v1/auth without middleware; /v1/me and
// /v1/auth/logout require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: stations,
// routes, schedule search and availability.  The optional cache middleware
// (nil-safe) is applied to these read-only routes only.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/stations", p.ListStations)
	g.GET("/stations/:id", p.GetStation)
	g.GET("/routes", p.ListRoutes)
	g.GET("/routes/:id", p.GetRoute)
	g.GET("/schedules", p.SearchSchedules)
	g.GET("/schedules/:id", p.GetSchedule)
	g.GET("/schedules/:id/availability", p.CheckAvailability)
}
