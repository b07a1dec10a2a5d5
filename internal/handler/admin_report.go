package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/repository"
)

// AdminReportHandler serves the reporting endpoints: booking aggregates
// over a date range and per-schedule occupancy.
type AdminReportHandler struct {
	Reservations *repository.ReservationRepo
	Schedules    *repository.ScheduleRepo
	Timeout      time.Duration
}

func NewAdminReportHandler(res *repository.ReservationRepo, sc *repository.ScheduleRepo, timeout time.Duration) *AdminReportHandler {
	if res == nil || sc == nil {
		panic("nil repository passed to NewAdminReportHandler")
	}
	return &AdminReportHandler{Reservations: res, Schedules: sc, Timeout: timeout}
}

// Bookings handles GET /v1/admin/reports/bookings?from=YYYY-MM-DD&to=YYYY-MM-DD.
// The range is inclusive of both days.
func (h *AdminReportHandler) Bookings(c echo.Context) error {
	fromStr := c.QueryParam("from")
	toStr := c.QueryParam("to")
	if fromStr == "" || toStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to are required (YYYY-MM-DD)"})
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be YYYY-MM-DD"})
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be YYYY-MM-DD"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	rep, err := h.Reservations.Report(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, rep)
}

// Occupancy handles GET /v1/admin/schedules/:id/occupancy.
func (h *AdminReportHandler) Occupancy(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	o, err := h.Schedules.GetOccupancy(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, o)
}
