package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/model"
	"railbook/internal/repository"
)

// AdminScheduleHandler serves the admin surface for schedules: creation,
// status and fare patches, and deletion.
type AdminScheduleHandler struct {
	Schedules *repository.ScheduleRepo
	Stations  *repository.StationRepo
	Timeout   time.Duration
}

func NewAdminScheduleHandler(sc *repository.ScheduleRepo, st *repository.StationRepo, timeout time.Duration) *AdminScheduleHandler {
	if sc == nil || st == nil {
		panic("nil repository passed to NewAdminScheduleHandler")
	}
	return &AdminScheduleHandler{Schedules: sc, Stations: st, Timeout: timeout}
}

type createScheduleReq struct {
	TrainID            uint64  `json:"train_id"`
	DepartureStationID uint64  `json:"departure_station_id"`
	ArrivalStationID   uint64  `json:"arrival_station_id"`
	DepartsAt          string  `json:"departs_at"`
	ArrivesAt          string  `json:"arrives_at"`
	BaseFare           float64 `json:"base_fare"`
}

// Create handles POST /v1/admin/schedules.  available_seats is seeded from
// the train's capacity; status starts SCHEDULED.
func (h *AdminScheduleHandler) Create(c echo.Context) error {
	var req createScheduleReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.TrainID == 0 || req.DepartureStationID == 0 || req.ArrivalStationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id, departure_station_id and arrival_station_id are required"})
	}
	if req.DepartureStationID == req.ArrivalStationID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure and arrival stations must differ"})
	}
	if req.BaseFare <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_fare must be positive"})
	}
	departs, err := time.Parse(time.RFC3339, req.DepartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departs_at must be RFC3339"})
	}
	arrives, err := time.Parse(time.RFC3339, req.ArrivesAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrives_at must be RFC3339"})
	}
	if !arrives.After(departs) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrives_at must be after departs_at"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	for _, sid := range []uint64{req.DepartureStationID, req.ArrivalStationID} {
		if _, err := h.Stations.GetByID(ctx, sid); err != nil {
			if errors.Is(err, repository.ErrStationNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "station not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	s := &model.Schedule{
		TrainID:            req.TrainID,
		DepartureStationID: req.DepartureStationID,
		ArrivalStationID:   req.ArrivalStationID,
		DepartsAt:          departs,
		ArrivesAt:          arrives,
		BaseFare:           req.BaseFare,
	}
	if err := h.Schedules.Create(ctx, s); err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create schedule failed"})
	}
	return c.JSON(http.StatusCreated, toScheduleResp(*s))
}

// scheduleStatusPatch is the admin patch body for schedule state.  Unknown
// fields are rejected so a fare change cannot ride along unnoticed.
type scheduleStatusPatch struct {
	Status    string  `json:"status"`
	DepartsAt *string `json:"departs_at"`
	ArrivesAt *string `json:"arrives_at"`
}

// UpdateStatus handles PATCH /v1/admin/schedules/:id/status.  DELAYED
// patches may shift departure/arrival times in the same call.
func (h *AdminScheduleHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var req scheduleStatusPatch
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := normUpper(req.Status)
	switch status {
	case model.ScheduleScheduled, model.ScheduleDeparted, model.ScheduleArrived,
		model.ScheduleCancelled, model.ScheduleDelayed:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown schedule status"})
	}

	var departs, arrives *time.Time
	if req.DepartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.DepartsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "departs_at must be RFC3339"})
		}
		departs = &t
	}
	if req.ArrivesAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ArrivesAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrives_at must be RFC3339"})
		}
		arrives = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Schedules.UpdateStatus(ctx, id, status, departs, arrives); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update schedule failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedule_id": id, "status": status})
}

type scheduleFarePatch struct {
	BaseFare float64 `json:"base_fare"`
}

// UpdateFare handles PATCH /v1/admin/schedules/:id/fare.  Existing
// reservations keep the fare snapshotted when they were booked.
func (h *AdminScheduleHandler) UpdateFare(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var req scheduleFarePatch
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BaseFare <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_fare must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Schedules.UpdateFare(ctx, id, req.BaseFare); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update fare failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedule_id": id, "base_fare": req.BaseFare})
}

// Delete handles DELETE /v1/admin/schedules/:id.  Schedules with any
// reservations, cancelled included, are kept for audit.
func (h *AdminScheduleHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	if err := h.Schedules.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "schedule has reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete schedule failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
