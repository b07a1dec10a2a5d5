package repository

import (
	"context"
	"database/sql"
	"errors"

	"railbook/internal/model"
)

// ErrTrainNotFound is returned when a train cannot be found in the DB.
var ErrTrainNotFound = errors.New("train not found")

// TrainRepo manages persistence for trains.
type TrainRepo struct {
	db *sql.DB
}

// NewTrainRepo constructs a TrainRepo with the given DB handle.
func NewTrainRepo(db *sql.DB) *TrainRepo { return &TrainRepo{db: db} }

// Create inserts a new train.  Route existence is enforced by the foreign
// key; capacity > 0 is validated at the handler boundary.
func (r *TrainRepo) Create(ctx context.Context, t *model.Train) error {
	const qInsert = "INSERT INTO trains (name, type, capacity, status, route_id) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, qInsert, t.Name, t.Type, t.Capacity, t.Status, t.RouteID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	const qSelect = "SELECT name, type, capacity, status, route_id, created_at, updated_at FROM trains WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, t.ID).Scan(&t.Name, &t.Type, &t.Capacity, &t.Status, &t.RouteID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a train.  Returns ErrTrainNotFound when absent.
func (r *TrainRepo) GetByID(ctx context.Context, id uint64) (*model.Train, error) {
	const q = "SELECT id, name, type, capacity, status, route_id, created_at, updated_at FROM trains WHERE id = ?"
	var t model.Train
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Type, &t.Capacity, &t.Status, &t.RouteID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns all trains ordered by name.
func (r *TrainRepo) List(ctx context.Context) ([]model.Train, error) {
	const q = "SELECT id, name, type, capacity, status, route_id, created_at, updated_at FROM trains ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Train, 0)
	for rows.Next() {
		var t model.Train
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.Capacity, &t.Status, &t.RouteID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a train.
func (r *TrainRepo) Update(ctx context.Context, t *model.Train) error {
	const q = "UPDATE trains SET name = ?, type = ?, capacity = ?, status = ?, route_id = ? WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Type, t.Capacity, t.Status, t.RouteID, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a train.  Returns ErrConflict when schedules still
// reference it.
func (r *TrainRepo) Delete(ctx context.Context, id uint64) error {
	var schedules int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedules WHERE train_id = ?", id).Scan(&schedules); err != nil {
		return err
	}
	if schedules > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM trains WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTrainNotFound
	}
	return nil
}
