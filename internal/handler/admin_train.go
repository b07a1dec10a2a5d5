package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/model"
	"railbook/internal/repository"
)

// AdminTrainHandler serves the admin CRUD surface for trains.
type AdminTrainHandler struct {
	Trains  *repository.TrainRepo
	Routes  *repository.RouteRepo
	Timeout time.Duration
}

func NewAdminTrainHandler(tr *repository.TrainRepo, rt *repository.RouteRepo, timeout time.Duration) *AdminTrainHandler {
	if tr == nil || rt == nil {
		panic("nil repository passed to NewAdminTrainHandler")
	}
	return &AdminTrainHandler{Trains: tr, Routes: rt, Timeout: timeout}
}

type trainReq struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity uint32 `json:"capacity"`
	Status   string `json:"status"`
	RouteID  uint64 `json:"route_id"`
}

func (r *trainReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = normUpper(r.Type)
	r.Status = normUpper(r.Status)
	if r.Status == "" {
		r.Status = model.TrainActive
	}
	switch {
	case r.Name == "":
		return "name is required"
	case r.Type == "":
		return "type is required"
	case r.Capacity == 0:
		return "capacity must be positive"
	case r.RouteID == 0:
		return "route_id is required"
	}
	switch r.Status {
	case model.TrainActive, model.TrainInactive, model.TrainMaintenance:
		return ""
	}
	return "status must be ACTIVE, INACTIVE or MAINTENANCE"
}

// Create handles POST /v1/admin/trains.
func (h *AdminTrainHandler) Create(c echo.Context) error {
	var req trainReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if _, err := h.Routes.GetByID(ctx, req.RouteID); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	t := &model.Train{Name: req.Name, Type: req.Type, Capacity: req.Capacity, Status: req.Status, RouteID: req.RouteID}
	if err := h.Trains.Create(ctx, t); err != nil {
		if repository.IsDuplicateKey(err) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "train name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create train failed"})
	}
	return c.JSON(http.StatusCreated, toTrainResp(*t))
}

// List handles GET /v1/admin/trains.
func (h *AdminTrainHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	trains, err := h.Trains.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]trainResp, 0, len(trains))
	for _, t := range trains {
		out = append(out, toTrainResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": out})
}

// Get handles GET /v1/admin/trains/:id.
func (h *AdminTrainHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	t, err := h.Trains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toTrainResp(*t))
}

// Update handles PUT /v1/admin/trains/:id.  Capacity changes do not touch
// existing schedules; their seat pools were seeded at creation.
func (h *AdminTrainHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	var req trainReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	t := &model.Train{ID: id, Name: req.Name, Type: req.Type, Capacity: req.Capacity, Status: req.Status, RouteID: req.RouteID}
	if err := h.Trains.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, repository.ErrTrainNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		case repository.IsDuplicateKey(err):
			return c.JSON(http.StatusConflict, echo.Map{"error": "train name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update train failed"})
	}
	return c.JSON(http.StatusOK, toTrainResp(*t))
}

// Delete handles DELETE /v1/admin/trains/:id.
func (h *AdminTrainHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	if err := h.Trains.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTrainNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "train still has schedules"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete train failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
