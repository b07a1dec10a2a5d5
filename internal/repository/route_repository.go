package repository

import (
	"context"
	"database/sql"
	"errors"

	"railbook/internal/model"
)

// ErrRouteNotFound is returned when a route cannot be found in the DB.
var ErrRouteNotFound = errors.New("route not found")

// RouteRepo manages persistence for routes and their ordered stops.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// RouteStop is one stop of a route joined with its station for display.
type RouteStop struct {
	StationID    uint64  `json:"station_id"`
	StationName  string  `json:"station_name"`
	StationCode  string  `json:"station_code"`
	StopSequence uint32  `json:"stop_sequence"`
	DistanceKM   float64 `json:"distance_km"`
}

// Create inserts a route together with its ordered stops in one
// transaction.  Stops must arrive pre-sorted by StopSequence; the sequence
// is stored as given.  On success the route's ID and timestamps are
// populated.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route, stops []model.RouteStation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "INSERT INTO routes (name, code) VALUES (?, ?)", rt.Name, rt.Code)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)

	const qStop = "INSERT INTO route_stations (route_id, station_id, stop_sequence, distance_km) VALUES (?, ?, ?, ?)"
	for _, st := range stops {
		if _, err := tx.ExecContext(ctx, qStop, rt.ID, st.StationID, st.StopSequence, st.DistanceKM); err != nil {
			return err
		}
	}

	const qSelect = "SELECT name, code, created_at, updated_at FROM routes WHERE id = ?"
	if err := tx.QueryRowContext(ctx, qSelect, rt.ID).Scan(&rt.Name, &rt.Code, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a route.  Returns ErrRouteNotFound when absent.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (*model.Route, error) {
	const q = "SELECT id, name, code, created_at, updated_at FROM routes WHERE id = ?"
	var rt model.Route
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rt.ID, &rt.Name, &rt.Code, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// Stops returns the ordered stop list of a route with station details.
func (r *RouteRepo) Stops(ctx context.Context, routeID uint64) ([]RouteStop, error) {
	const q = `SELECT rs.station_id, s.name, s.code, rs.stop_sequence, rs.distance_km
	           FROM route_stations rs
	           JOIN stations s ON s.id = rs.station_id
	           WHERE rs.route_id = ?
	           ORDER BY rs.stop_sequence`
	rows, err := r.db.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RouteStop, 0)
	for rows.Next() {
		var st RouteStop
		if err := rows.Scan(&st.StationID, &st.StationName, &st.StationCode, &st.StopSequence, &st.DistanceKM); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// List returns all routes ordered by code.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
	const q = "SELECT id, name, code, created_at, updated_at FROM routes ORDER BY code"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Route, 0)
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Code, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Update rewrites a route's name/code and, when stops is non-nil, replaces
// the whole stop list.  Replacing rather than diffing keeps stop_sequence
// consistent without merge rules.
func (r *RouteRepo) Update(ctx context.Context, rt *model.Route, stops []model.RouteStation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "UPDATE routes SET name = ?, code = ? WHERE id = ?", rt.Name, rt.Code, rt.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM routes WHERE id = ?)", rt.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrRouteNotFound
		}
	}
	if stops != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM route_stations WHERE route_id = ?", rt.ID); err != nil {
			return err
		}
		const qStop = "INSERT INTO route_stations (route_id, station_id, stop_sequence, distance_km) VALUES (?, ?, ?, ?)"
		for _, st := range stops {
			if _, err := tx.ExecContext(ctx, qStop, rt.ID, st.StationID, st.StopSequence, st.DistanceKM); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a route and its stops.  Returns ErrConflict when trains
// are still assigned to the route.
func (r *RouteRepo) Delete(ctx context.Context, id uint64) error {
	var trains int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trains WHERE route_id = ?", id).Scan(&trains); err != nil {
		return err
	}
	if trains > 0 {
		return ErrConflict
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM route_stations WHERE route_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM routes WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRouteNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
