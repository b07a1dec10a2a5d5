package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/model"
	"railbook/internal/repository"
)

// AdminRouteHandler serves the admin CRUD surface for routes and their
// ordered stop lists.
type AdminRouteHandler struct {
	Routes  *repository.RouteRepo
	Timeout time.Duration
}

func NewAdminRouteHandler(rt *repository.RouteRepo, timeout time.Duration) *AdminRouteHandler {
	if rt == nil {
		panic("nil repository passed to NewAdminRouteHandler")
	}
	return &AdminRouteHandler{Routes: rt, Timeout: timeout}
}

type routeStopReq struct {
	StationID    uint64  `json:"station_id"`
	StopSequence uint32  `json:"stop_sequence"`
	DistanceKM   float64 `json:"distance_km"`
}

type routeReq struct {
	Name  string         `json:"name"`
	Code  string         `json:"code"`
	Stops []routeStopReq `json:"stops"`
}

// toStops validates the stop list and returns it sorted by sequence.
// Sequences must be unique and distances non-decreasing along the route.
func (r *routeReq) toStops() ([]model.RouteStation, string) {
	if len(r.Stops) < 2 {
		return nil, "a route needs at least two stops"
	}
	stops := make([]model.RouteStation, 0, len(r.Stops))
	seenSeq := make(map[uint32]bool, len(r.Stops))
	seenStation := make(map[uint64]bool, len(r.Stops))
	for _, st := range r.Stops {
		if st.StationID == 0 {
			return nil, "every stop needs a station_id"
		}
		if st.StopSequence == 0 {
			return nil, "stop_sequence starts at 1"
		}
		if st.DistanceKM < 0 {
			return nil, "distance_km cannot be negative"
		}
		if seenSeq[st.StopSequence] {
			return nil, "duplicate stop_sequence"
		}
		if seenStation[st.StationID] {
			return nil, "duplicate station in route"
		}
		seenSeq[st.StopSequence] = true
		seenStation[st.StationID] = true
		stops = append(stops, model.RouteStation{
			StationID:    st.StationID,
			StopSequence: st.StopSequence,
			DistanceKM:   st.DistanceKM,
		})
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].StopSequence < stops[j].StopSequence })
	for i := 1; i < len(stops); i++ {
		if stops[i].DistanceKM < stops[i-1].DistanceKM {
			return nil, "distance_km must not decrease along the route"
		}
	}
	return stops, ""
}

// Create handles POST /v1/admin/routes.
func (h *AdminRouteHandler) Create(c echo.Context) error {
	var req routeReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = normUpper(req.Code)
	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and code are required"})
	}
	stops, msg := req.toStops()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	rt := &model.Route{Name: req.Name, Code: req.Code}
	if err := h.Routes.Create(ctx, rt, stops); err != nil {
		if repository.IsDuplicateKey(err) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "route code already exists"})
		}
		// An unknown station surfaces as a foreign key violation.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "create route failed; check station ids"})
	}
	return c.JSON(http.StatusCreated, toRouteResp(*rt))
}

// Update handles PUT /v1/admin/routes/:id.  When stops are present the
// whole stop list is replaced.
func (h *AdminRouteHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	var req routeReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Code = normUpper(req.Code)
	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and code are required"})
	}
	var stops []model.RouteStation
	if req.Stops != nil {
		var msg string
		stops, msg = req.toStops()
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	rt := &model.Route{ID: id, Name: req.Name, Code: req.Code}
	if err := h.Routes.Update(ctx, rt, stops); err != nil {
		switch {
		case errors.Is(err, repository.ErrRouteNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		case repository.IsDuplicateKey(err):
			return c.JSON(http.StatusConflict, echo.Map{"error": "route code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update route failed"})
	}
	return c.JSON(http.StatusOK, toRouteResp(*rt))
}

// Delete handles DELETE /v1/admin/routes/:id.
func (h *AdminRouteHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	if err := h.Routes.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRouteNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "route still has trains assigned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete route failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
