// Package repository contains data access logic separated from HTTP
// handlers.  This file holds CRUD and lookup operations for stations.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"railbook/internal/model"
)

// ErrStationNotFound is returned when a station cannot be found in the DB.
var ErrStationNotFound = errors.New("station not found")

// StationRepo encapsulates all database queries related to stations.
type StationRepo struct {
	db *sql.DB
}

// NewStationRepo constructs a StationRepo with the provided DB handle.
func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{db: db} }

// Create inserts a new station.  On success the station's ID and timestamp
// fields are populated from the database.
func (r *StationRepo) Create(ctx context.Context, s *model.Station) error {
	const qInsert = "INSERT INTO stations (name, code, city) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, s.Name, s.Code, s.City)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const qSelect = "SELECT name, code, city, created_at, updated_at FROM stations WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, s.ID).Scan(&s.Name, &s.Code, &s.City, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID fetches a single station.  Returns ErrStationNotFound when the
// row does not exist.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (*model.Station, error) {
	const q = "SELECT id, name, code, city, created_at, updated_at FROM stations WHERE id = ?"
	var s model.Station
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.Code, &s.City, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns all stations ordered by name.
func (r *StationRepo) List(ctx context.Context) ([]model.Station, error) {
	const q = "SELECT id, name, code, city, created_at, updated_at FROM stations ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Station, 0)
	for rows.Next() {
		var s model.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.City, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a station.  Returns
// ErrStationNotFound when no row was matched.
func (r *StationRepo) Update(ctx context.Context, s *model.Station) error {
	const q = "UPDATE stations SET name = ?, code = ?, city = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Code, s.City, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Row may exist with identical values; distinguish from missing.
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a station.  Returns ErrConflict when the station is still
// referenced by a route or schedule, and ErrStationNotFound when it does
// not exist.
func (r *StationRepo) Delete(ctx context.Context, id uint64) error {
	const qRefs = `SELECT
		(SELECT COUNT(*) FROM route_stations WHERE station_id = ?) +
		(SELECT COUNT(*) FROM schedules WHERE departure_station_id = ? OR arrival_station_id = ?)`
	var refs int64
	if err := r.db.QueryRowContext(ctx, qRefs, id, id, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM stations WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStationNotFound
	}
	return nil
}
