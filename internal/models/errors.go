package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Callers test with errors.Is.
var (
	// ErrNotFound: a station, schedule, or run lookup yielded nothing. The
	// operation is aborted with no partial mutation.
	ErrNotFound = errors.New("not found")

	// ErrNoPath: route resolution found no candidate with a complete
	// schedule chain. Distinct from ErrNotFound.
	ErrNoPath = errors.New("no path")

	// ErrConflict: a conditional store update's match clause failed because
	// of a concurrent mutation. Retryable by the caller; never auto-retried.
	ErrConflict = errors.New("conflicting write")

	// ErrNoDelay: remove-delay was called on a run without a delay marker.
	ErrNoDelay = errors.New("run has no delay")
)

// TopologyWarning records an inconsistency that degraded but did not abort a
// topology operation: a station claiming a line it has no edge for, or
// appearing as neither endpoint of an edge that should contain it. Warnings
// are surfaced in results and logged, never returned as errors.
type TopologyWarning struct {
	Station StationID
	Line    string
	Reason  string
}

func (w TopologyWarning) String() string {
	return fmt.Sprintf("line %s at %s (%s): %s", w.Line, w.Station.Name, w.Station.Entrance, w.Reason)
}
