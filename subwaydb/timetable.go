package subwaydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// NormalizeLine canonicalizes a line label for timetable lookups; the
// timetable store keys are uppercase.
func NormalizeLine(line string) string {
	return strings.ToUpper(strings.TrimSpace(line))
}

func (q *Queries) scanRun(ctx context.Context, row *sql.Row) (models.Run, error) {
	var run models.Run
	var direction string
	var delayStart sql.NullString
	var delayMinutes sql.NullInt64
	if err := row.Scan(&run.ID, &run.Line, &direction, &delayStart, &delayMinutes); err != nil {
		return models.Run{}, err
	}
	run.Direction = models.Direction(direction)
	if delayStart.Valid {
		run.Delay = &models.DelayMarker{Start: delayStart.String, Minutes: int(delayMinutes.Int64)}
	}

	stops, err := q.runStops(ctx, run.ID)
	if err != nil {
		return models.Run{}, err
	}
	run.Stops = stops
	return run, nil
}

func (q *Queries) runStops(ctx context.Context, runID int64) ([]models.RunStop, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT station, minutes FROM run_stops WHERE run_id = ? ORDER BY minutes;
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var stops []models.RunStop
	for rows.Next() {
		var s models.RunStop
		var minutes int
		if err := rows.Scan(&s.Station, &minutes); err != nil {
			return nil, err
		}
		s.Time = models.Clock(minutes)
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

const runColumns = `id, line, direction, delay_start, delay_minutes`

// GetRun fetches one run by id.
func (q *Queries) GetRun(ctx context.Context, id int64) (models.Run, error) {
	run, err := q.scanRun(ctx, q.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE id = ?;
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, fmt.Errorf("run %d: %w", id, models.ErrNotFound)
	}
	return run, err
}

// RunsByLineDirection lists every run for a line and direction.
func (q *Queries) RunsByLineDirection(ctx context.Context, line string, direction models.Direction) ([]models.Run, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id FROM runs WHERE line = ? AND direction = ? ORDER BY id;
	`, NormalizeLine(line), string(direction))
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]models.Run, 0, len(ids))
	for _, id := range ids {
		run, err := q.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// NextRun finds the next run on the given line whose departure from the
// from-station is at or after the given time and whose arrival at the
// to-station is strictly later than that departure, sorted by arrival.
// Returns ErrNotFound when no run qualifies.
func (q *Queries) NextRun(ctx context.Context, line, from, to string, after models.Clock) (models.RunWindow, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT r.id, s1.minutes, s2.minutes
		FROM runs r
		JOIN run_stops s1 ON s1.run_id = r.id AND s1.station = ?
		JOIN run_stops s2 ON s2.run_id = r.id AND s2.station = ?
		WHERE r.line = ? AND s1.minutes >= ? AND s2.minutes > s1.minutes
		ORDER BY s2.minutes
		LIMIT 1;
	`, from, to, NormalizeLine(line), int(after))

	var w models.RunWindow
	var departs, arrives int
	if err := row.Scan(&w.RunID, &departs, &arrives); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RunWindow{}, fmt.Errorf("next run on %s from %q after %s: %w", line, from, after, models.ErrNotFound)
		}
		return models.RunWindow{}, err
	}
	w.Departs = models.Clock(departs)
	w.Arrives = models.Clock(arrives)
	return w, nil
}

// RunByLineDirectionStationTime finds the run with the exact scheduled time
// at the given station, the point query delay operations address runs with.
func (q *Queries) RunByLineDirectionStationTime(ctx context.Context, line string, direction models.Direction, station string, at models.Clock) (models.Run, error) {
	run, err := q.scanRun(ctx, q.db.QueryRowContext(ctx, `
		SELECT r.id, r.line, r.direction, r.delay_start, r.delay_minutes
		FROM runs r
		JOIN run_stops s ON s.run_id = r.id
		WHERE r.line = ? AND r.direction = ? AND s.station = ? AND s.minutes = ?
		LIMIT 1;
	`, NormalizeLine(line), string(direction), station, int(at)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, fmt.Errorf("run on %s %s at %q %s: %w", line, direction, station, at, models.ErrNotFound)
	}
	return run, err
}

// ShiftAfter applies a conditional shift to a run's timetable: every stop
// strictly later than the anchor station moves by delta minutes, and the
// run's delay marker is replaced with the given one (nil clears it). The
// anchor's current time must equal expected or the update fails with
// ErrConflict, which is what stops two concurrent delay calls on the same
// run from compounding.
func (q *Queries) ShiftAfter(ctx context.Context, runID int64, anchor string, expected models.Clock, delta int, marker *models.DelayMarker) error {
	row := q.db.QueryRowContext(ctx, `
		SELECT minutes FROM run_stops WHERE run_id = ? AND station = ?;
	`, runID, anchor)
	var current int
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %d has no stop %q: %w", runID, anchor, models.ErrNotFound)
		}
		return err
	}
	if models.Clock(current) != expected {
		return fmt.Errorf("run %d stop %q moved from %s: %w", runID, anchor, expected, models.ErrConflict)
	}

	if _, err := q.db.ExecContext(ctx, `
		UPDATE run_stops SET minutes = minutes + ? WHERE run_id = ? AND minutes > ?;
	`, delta, runID, current); err != nil {
		return fmt.Errorf("error shifting run stops: %w", err)
	}

	if marker != nil {
		_, err := q.db.ExecContext(ctx, `
			UPDATE runs SET delay_start = ?, delay_minutes = ? WHERE id = ?;
		`, marker.Start, marker.Minutes, runID)
		if err != nil {
			return fmt.Errorf("error setting delay marker: %w", err)
		}
	} else {
		_, err := q.db.ExecContext(ctx, `
			UPDATE runs SET delay_start = NULL, delay_minutes = NULL WHERE id = ?;
		`, runID)
		if err != nil {
			return fmt.Errorf("error clearing delay marker: %w", err)
		}
	}
	return nil
}

// RunsWithDelay lists every run currently carrying a delay marker.
func (q *Queries) RunsWithDelay(ctx context.Context) ([]models.Run, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id FROM runs WHERE delay_start IS NOT NULL ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]models.Run, 0, len(ids))
	for _, id := range ids {
		run, err := q.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// BulkInsertRuns inserts schedule documents in one transaction. Only the
// ingestion path calls this.
func (c *Client) BulkInsertRuns(ctx context.Context, runs []models.Run) error {
	return c.Transact(ctx, func(q *Queries) error {
		for _, run := range runs {
			res, err := q.db.ExecContext(ctx, `
				INSERT INTO runs (line, direction) VALUES (?, ?);
			`, NormalizeLine(run.Line), string(run.Direction))
			if err != nil {
				return fmt.Errorf("error inserting run: %w", err)
			}
			runID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("error reading run id: %w", err)
			}
			for _, stop := range run.Stops {
				_, err := q.db.ExecContext(ctx, `
					INSERT OR REPLACE INTO run_stops (run_id, station, minutes) VALUES (?, ?, ?);
				`, runID, stop.Station, int(stop.Time))
				if err != nil {
					return fmt.Errorf("error inserting run stop: %w", err)
				}
			}
		}
		return nil
	})
}

// DeleteAllRuns clears the timetable store.
func (q *Queries) DeleteAllRuns(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM runs;`); err != nil {
		return fmt.Errorf("error clearing runs: %w", err)
	}
	return nil
}
