package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/model"
)

// getUserID extracts the authenticated user's ID stored in the context by
// the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case uint64:
		if v != 0 {
			return v, nil
		}
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("no user in context")
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// decodeStrict binds a JSON body into v, rejecting unknown fields.  Patch
// endpoints use it so a typo'd or out-of-role field fails loudly instead
// of being silently dropped.
func decodeStrict(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing garbage after the object is also a malformed body.
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

// normUpper trims and uppercases an enum-ish input field.
func normUpper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// ----- shared response shapes -----
//
// The model structs mirror table rows and carry no serialization tags;
// these are the JSON shapes the API exposes for them.

type stationResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	City string `json:"city"`
}

type routeResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type trainResp struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity uint32 `json:"capacity"`
	Status   string `json:"status"`
	RouteID  uint64 `json:"route_id"`
}

type scheduleResp struct {
	ID                 uint64  `json:"id"`
	TrainID            uint64  `json:"train_id"`
	DepartureStationID uint64  `json:"departure_station_id"`
	ArrivalStationID   uint64  `json:"arrival_station_id"`
	DepartsAt          string  `json:"departs_at"`
	ArrivesAt          string  `json:"arrives_at"`
	BaseFare           float64 `json:"base_fare"`
	AvailableSeats     int32   `json:"available_seats"`
	Status             string  `json:"status"`
}

func toStationResp(s model.Station) stationResp {
	return stationResp{ID: s.ID, Name: s.Name, Code: s.Code, City: s.City}
}

func toRouteResp(r model.Route) routeResp {
	return routeResp{ID: r.ID, Name: r.Name, Code: r.Code}
}

func toTrainResp(t model.Train) trainResp {
	return trainResp{ID: t.ID, Name: t.Name, Type: t.Type, Capacity: t.Capacity, Status: t.Status, RouteID: t.RouteID}
}

func toScheduleResp(s model.Schedule) scheduleResp {
	return scheduleResp{
		ID:                 s.ID,
		TrainID:            s.TrainID,
		DepartureStationID: s.DepartureStationID,
		ArrivalStationID:   s.ArrivalStationID,
		DepartsAt:          s.DepartsAt.UTC().Format(time.RFC3339),
		ArrivesAt:          s.ArrivesAt.UTC().Format(time.RFC3339),
		BaseFare:           s.BaseFare,
		AvailableSeats:     s.AvailableSeats,
		Status:             s.Status,
	}
}
