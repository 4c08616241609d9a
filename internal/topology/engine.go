package topology

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// Engine owns the out-of-order / restore lifecycle. It rewires CONNECTS
// edges into REROUTES chains when a station fails and back when it returns,
// always inside a single store transaction per call.
type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Result reports what a lifecycle operation did, including the per-line
// inconsistencies it degraded around.
type Result struct {
	Station  models.StationID
	Warnings []models.TopologyWarning
}

// SetOutOfOrder takes a station out of service. Every edge touching it is
// deleted and each affected line gets exactly one reroute edge carrying the
// ordered undo log that later restores can replay in any order.
func (e *Engine) SetOutOfOrder(ctx context.Context, id models.StationID) (Result, error) {
	result := Result{Station: id}

	err := e.store.Transact(ctx, func(ops Ops) error {
		station, err := ops.GetStation(ctx, id)
		if err != nil {
			return err
		}
		if station.Status != models.StatusNormal {
			return fmt.Errorf("station %q (%s) is already out of order: %w", id.Name, id.Entrance, models.ErrConflict)
		}

		edges, err := ops.EdgesTouching(ctx, id)
		if err != nil {
			return err
		}

		// Destructive first: no stale edge may be traversable mid-update.
		// The surrounding transaction keeps readers from seeing the gap.
		if err := ops.DetachStation(ctx, id); err != nil {
			return err
		}

		plan := planOutage(id, edges)
		result.Warnings = plan.Warnings
		for _, r := range plan.Reroutes {
			if err := ops.CreateReroute(ctx, r.Start, r.End, r.Line, r.Tokens); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	e.logWarnings("set_out_of_order", result)
	return result, nil
}

// SetNormal returns a station to service, replaying the undo logs of every
// reroute that mentions it. Restores are order-independent: the token's
// position inside each log decides what gets recreated.
func (e *Engine) SetNormal(ctx context.Context, id models.StationID) (Result, error) {
	result := Result{Station: id}

	err := e.store.Transact(ctx, func(ops Ops) error {
		station, err := ops.GetStation(ctx, id)
		if err != nil {
			return err
		}
		if station.Status != models.StatusOutOfOrder {
			return fmt.Errorf("station %q (%s) is not out of order: %w", id.Name, id.Entrance, models.ErrConflict)
		}

		reroutes, err := ops.ReroutesContaining(ctx, id)
		if err != nil {
			return err
		}

		if err := ops.SetStationStatus(ctx, id, models.StatusNormal); err != nil {
			return err
		}

		for _, r := range reroutes {
			if err := ops.DeleteEdge(ctx, r.ID); err != nil {
				return err
			}
			plan := planRestore(id, r)
			result.Warnings = append(result.Warnings, plan.Warnings...)
			for _, s := range plan.Segments {
				if err := ops.CreateSegment(ctx, s.Start, s.End, s.Line); err != nil {
					return err
				}
			}
			for _, rr := range plan.Reroutes {
				if err := ops.CreateReroute(ctx, rr.Start, rr.End, rr.Line, rr.Tokens); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	e.logWarnings("set_normal", result)
	return result, nil
}

func (e *Engine) logWarnings(op string, result Result) {
	for _, w := range result.Warnings {
		e.logger.Warn("inconsistent topology",
			"operation", op,
			"station", w.Station.Name,
			"entrance", w.Station.Entrance,
			"line", w.Line,
			"reason", w.Reason)
	}
}
