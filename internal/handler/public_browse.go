package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/booking"
	"railbook/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: stations,
// routes, schedule search and availability checks.
type PublicHandler struct {
	Stations  *repository.StationRepo
	Routes    *repository.RouteRepo
	Schedules *repository.ScheduleRepo
	Svc       *booking.Service
	Timeout   time.Duration
}

func NewPublicHandler(st *repository.StationRepo, rt *repository.RouteRepo, sc *repository.ScheduleRepo, svc *booking.Service, timeout time.Duration) *PublicHandler {
	if st == nil || rt == nil || sc == nil || svc == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Stations: st, Routes: rt, Schedules: sc, Svc: svc, Timeout: timeout}
}

func (h *PublicHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

// ListStations handles GET /v1/stations.
func (h *PublicHandler) ListStations(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	stations, err := h.Stations.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]stationResp, 0, len(stations))
	for _, s := range stations {
		out = append(out, toStationResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"stations": out})
}

// GetStation handles GET /v1/stations/:id.
func (h *PublicHandler) GetStation(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.Stations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toStationResp(*s))
}

// ListRoutes handles GET /v1/routes.
func (h *PublicHandler) ListRoutes(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	routes, err := h.Routes.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]routeResp, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"routes": out})
}

// GetRoute handles GET /v1/routes/:id, returning the route with its
// ordered stop list.
func (h *PublicHandler) GetRoute(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rt, err := h.Routes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	stops, err := h.Routes.Stops(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"route": toRouteResp(*rt), "stops": stops})
}

// SearchSchedules handles GET /v1/schedules.  Query params: from, to
// (station name or code), date (YYYY-MM-DD), page, page_size.
func (h *PublicHandler) SearchSchedules(c echo.Context) error {
	q := repository.ScheduleSearchQuery{
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		Date:     c.QueryParam("date"),
		Page:     1,
		PageSize: 20,
	}
	if q.Date != "" {
		if _, err := time.Parse("2006-01-02", q.Date); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
	}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			q.PageSize = n
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	items, total, err := h.Schedules.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedules": items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetSchedule handles GET /v1/schedules/:id.
func (h *PublicHandler) GetSchedule(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.Schedules.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}

// CheckAvailability handles GET /v1/schedules/:id/availability.  It
// distinguishes an unknown schedule from one that exists but cannot take
// bookings, and a bookable one from a sold-out one.
func (h *PublicHandler) CheckAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	d, err := h.Svc.CheckBookable(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, booking.ErrNotBookable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule is not open for booking"})
		case errors.Is(err, booking.ErrSoldOut):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule is sold out"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedule_id":     d.ID,
		"bookable":        true,
		"available_seats": d.AvailableSeats,
		"base_fare":       d.BaseFare,
		"status":          d.Status,
	})
}
