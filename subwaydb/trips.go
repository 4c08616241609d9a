package subwaydb

import (
	"context"
	"fmt"
	"time"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// AddTrip appends one trip log record.
func (q *Queries) AddTrip(ctx context.Context, trip models.TripLog) (models.TripLog, error) {
	if trip.Timestamp.IsZero() {
		trip.Timestamp = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO trips (user_id, start, stop, minutes, timestamp) VALUES (?, ?, ?, ?, ?);
	`, trip.UserID, trip.Start, trip.Stop, trip.Minutes, trip.Timestamp.Format(time.RFC3339))
	if err != nil {
		return models.TripLog{}, fmt.Errorf("error inserting trip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TripLog{}, fmt.Errorf("error reading trip id: %w", err)
	}
	trip.ID = id
	return trip, nil
}

// TripsByUser lists a user's trips, newest first.
func (q *Queries) TripsByUser(ctx context.Context, userID int64) ([]models.TripLog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, start, stop, minutes, timestamp FROM trips
		WHERE user_id = ? ORDER BY timestamp DESC, id DESC;
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var trips []models.TripLog
	for rows.Next() {
		var t models.TripLog
		var ts string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Start, &t.Stop, &t.Minutes, &ts); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("error parsing trip timestamp: %w", err)
		}
		t.Timestamp = parsed
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
