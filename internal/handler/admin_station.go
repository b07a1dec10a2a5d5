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

// AdminStationHandler serves the admin CRUD surface for stations.  Routes
// are mounted behind JWT auth plus an ADMIN role check.
type AdminStationHandler struct {
	Stations *repository.StationRepo
	Timeout  time.Duration
}

func NewAdminStationHandler(st *repository.StationRepo, timeout time.Duration) *AdminStationHandler {
	if st == nil {
		panic("nil repository passed to NewAdminStationHandler")
	}
	return &AdminStationHandler{Stations: st, Timeout: timeout}
}

type stationReq struct {
	Name string `json:"name"`
	Code string `json:"code"`
	City string `json:"city"`
}

func (r *stationReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = normUpper(r.Code)
	r.City = strings.TrimSpace(r.City)
	switch {
	case r.Name == "":
		return "name is required"
	case r.Code == "" || len(r.Code) > 10:
		return "code is required and at most 10 characters"
	case r.City == "":
		return "city is required"
	}
	return ""
}

// Create handles POST /v1/admin/stations.
func (h *AdminStationHandler) Create(c echo.Context) error {
	var req stationReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	s := &model.Station{Name: req.Name, Code: req.Code, City: req.City}
	if err := h.Stations.Create(ctx, s); err != nil {
		if repository.IsDuplicateKey(err) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "station code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create station failed"})
	}
	return c.JSON(http.StatusCreated, toStationResp(*s))
}

// Update handles PUT /v1/admin/stations/:id.
func (h *AdminStationHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	var req stationReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	s := &model.Station{ID: id, Name: req.Name, Code: req.Code, City: req.City}
	if err := h.Stations.Update(ctx, s); err != nil {
		switch {
		case errors.Is(err, repository.ErrStationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		case repository.IsDuplicateKey(err):
			return c.JSON(http.StatusConflict, echo.Map{"error": "station code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update station failed"})
	}
	return c.JSON(http.StatusOK, toStationResp(*s))
}

// Delete handles DELETE /v1/admin/stations/:id.  A station referenced by
// routes or schedules cannot be removed.
func (h *AdminStationHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	if err := h.Stations.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrStationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "station is referenced by routes or schedules"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete station failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
