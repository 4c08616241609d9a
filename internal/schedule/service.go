package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omarthenmalai/SubwayScheduler/internal/logging"
	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// Ops is the slice of timetable operations the delay engine runs inside a
// transaction.
type Ops interface {
	GetRun(ctx context.Context, id int64) (models.Run, error)
	RunByLineDirectionStationTime(ctx context.Context, line string, direction models.Direction, station string, at models.Clock) (models.Run, error)
	RunsByLineDirection(ctx context.Context, line string, direction models.Direction) ([]models.Run, error)
	RunsWithDelay(ctx context.Context) ([]models.Run, error)
	ShiftAfter(ctx context.Context, runID int64, anchor string, expected models.Clock, delta int, marker *models.DelayMarker) error
}

// Store runs a function against the timetable inside one transaction.
type Store interface {
	Transact(ctx context.Context, fn func(ops Ops) error) error
}

// Service owns timetable mutations and listings. A run carries at most one
// delay at a time; applying a new one reverses the old one first, so delays
// never compound and removal always restores the published schedule.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Delay marks the run identified by its scheduled call (line, direction,
// station, at) as delayed by minutes: every stop strictly after the station
// shifts, the station's own time does not. Returns the updated run.
func (s *Service) Delay(ctx context.Context, line string, direction models.Direction, station string, at models.Clock, minutes int) (models.Run, error) {
	if minutes <= 0 {
		return models.Run{}, fmt.Errorf("delay must be positive, got %d", minutes)
	}

	var updated models.Run
	err := s.store.Transact(ctx, func(ops Ops) error {
		run, err := ops.RunByLineDirectionStationTime(ctx, line, direction, station, at)
		if err != nil {
			return err
		}

		if run.Delay != nil {
			if run, err = s.reverse(ctx, ops, run); err != nil {
				return err
			}
		}

		anchorTime, ok := run.StopTime(station)
		if !ok {
			return fmt.Errorf("run %d has no stop %q: %w", run.ID, station, models.ErrNotFound)
		}
		marker := &models.DelayMarker{Start: station, Minutes: minutes}
		if err := ops.ShiftAfter(ctx, run.ID, station, anchorTime, minutes, marker); err != nil {
			return err
		}

		logging.LogOperation(s.logger, "delay applied",
			slog.Int64("run", run.ID),
			slog.String("line", run.Line),
			slog.String("station", station),
			slog.Int("minutes", minutes))

		updated, err = ops.GetRun(ctx, run.ID)
		return err
	})
	if err != nil {
		return models.Run{}, err
	}
	return updated, nil
}

// RemoveDelay reverses the delay on the run identified by its current
// scheduled call. Returns ErrNoDelay when the run carries no marker.
func (s *Service) RemoveDelay(ctx context.Context, line string, direction models.Direction, station string, at models.Clock) (models.Run, error) {
	var updated models.Run
	err := s.store.Transact(ctx, func(ops Ops) error {
		run, err := ops.RunByLineDirectionStationTime(ctx, line, direction, station, at)
		if err != nil {
			return err
		}
		if run.Delay == nil {
			return fmt.Errorf("run %d on %s %s: %w", run.ID, run.Line, run.Direction, models.ErrNoDelay)
		}
		if run, err = s.reverse(ctx, ops, run); err != nil {
			return err
		}
		updated = run
		return nil
	})
	if err != nil {
		return models.Run{}, err
	}
	return updated, nil
}

// reverse undoes the run's current delay marker and returns the run with
// restored times.
func (s *Service) reverse(ctx context.Context, ops Ops, run models.Run) (models.Run, error) {
	anchorTime, ok := run.StopTime(run.Delay.Start)
	if !ok {
		return models.Run{}, fmt.Errorf("run %d delay anchor %q missing: %w", run.ID, run.Delay.Start, models.ErrNotFound)
	}
	if err := ops.ShiftAfter(ctx, run.ID, run.Delay.Start, anchorTime, -run.Delay.Minutes, nil); err != nil {
		return models.Run{}, err
	}

	logging.LogOperation(s.logger, "delay reversed",
		slog.Int64("run", run.ID),
		slog.String("line", run.Line),
		slog.String("station", run.Delay.Start),
		slog.Int("minutes", run.Delay.Minutes))

	return ops.GetRun(ctx, run.ID)
}

// SchedulesByLineDirection lists the timetable for one line and direction.
func (s *Service) SchedulesByLineDirection(ctx context.Context, line string, direction models.Direction) ([]models.Run, error) {
	var runs []models.Run
	err := s.store.Transact(ctx, func(ops Ops) error {
		var err error
		runs, err = ops.RunsByLineDirection(ctx, line, direction)
		return err
	})
	return runs, err
}

// SchedulesByLine lists the timetable for a line in both directions,
// northbound first.
func (s *Service) SchedulesByLine(ctx context.Context, line string) ([]models.Run, error) {
	var runs []models.Run
	err := s.store.Transact(ctx, func(ops Ops) error {
		for _, d := range []models.Direction{models.DirectionNorth, models.DirectionSouth} {
			batch, err := ops.RunsByLineDirection(ctx, line, d)
			if err != nil {
				return err
			}
			runs = append(runs, batch...)
		}
		return nil
	})
	return runs, err
}

// DelayListings reports every active delay as one row per delayed run.
func (s *Service) DelayListings(ctx context.Context) ([]models.DelayListing, error) {
	var listings []models.DelayListing
	err := s.store.Transact(ctx, func(ops Ops) error {
		runs, err := ops.RunsWithDelay(ctx)
		if err != nil {
			return err
		}
		for _, run := range runs {
			first, ok := run.First()
			if !ok || run.Delay == nil {
				continue
			}
			listings = append(listings, models.DelayListing{
				Line:      run.Line,
				Direction: run.Direction,
				Earliest:  first.Time,
				Start:     run.Delay.Start,
				Minutes:   run.Delay.Minutes,
			})
		}
		return nil
	})
	return listings, err
}

// IsConflict reports whether err came from a concurrent delay update racing
// this one.
func IsConflict(err error) bool {
	return errors.Is(err, models.ErrConflict)
}
