package topology

import (
	"context"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// Ops is the slice of the graph store contract the engine rewires through.
// *subwaydb.Queries satisfies it; tests may substitute anything else.
type Ops interface {
	GetStation(ctx context.Context, id models.StationID) (models.Station, error)
	EdgesTouching(ctx context.Context, id models.StationID) ([]models.Edge, error)
	ReroutesContaining(ctx context.Context, id models.StationID) ([]models.Edge, error)
	DetachStation(ctx context.Context, id models.StationID) error
	SetStationStatus(ctx context.Context, id models.StationID, status models.StationStatus) error
	CreateSegment(ctx context.Context, start, end models.StationID, line string) error
	CreateReroute(ctx context.Context, start, end models.StationID, line string, tokens []models.RerouteToken) error
	DeleteEdge(ctx context.Context, edgeID int64) error
}

// Store runs a rewiring function inside one storage transaction, so a
// concurrent reader never observes a station detached but not yet rerouted.
type Store interface {
	Transact(ctx context.Context, fn func(ops Ops) error) error
}
