package models

// Direction labels one of the two service directions of a line.
type Direction string

const (
	DirectionNorth Direction = "Northbound"
	DirectionSouth Direction = "Southbound"
)

// RunStop is one scheduled call of a run at a station. Stop keys are station
// display names, shared by all entrances of a physical station.
type RunStop struct {
	Station string `json:"station"`
	Time    Clock  `json:"time"`
}

// DelayMarker records an in-place delay applied to a run: every stop
// strictly after Start has had Minutes added to its scheduled time. The
// marker is what makes the delay reversible.
type DelayMarker struct {
	Start   string `json:"start"`
	Minutes int    `json:"time"`
}

// Run is one scheduled train instance for a line and direction. Stops are
// ordered by travel and times are monotonically non-decreasing; a
// day-rollover fixup is applied at ingestion when a later stop's raw time is
// numerically smaller.
type Run struct {
	ID        int64        `json:"id"`
	Line      string       `json:"line"`
	Direction Direction    `json:"direction"`
	Stops     []RunStop    `json:"stops"`
	Delay     *DelayMarker `json:"delay,omitempty"`
}

// RunWindow is the slice of a run the resolver cares about: when it leaves
// one station and when it reaches the next.
type RunWindow struct {
	RunID   int64 `json:"run_id"`
	Departs Clock `json:"departs"`
	Arrives Clock `json:"arrives"`
}

// StopTime returns the scheduled time at the named station and whether the
// run calls there at all.
func (r Run) StopTime(station string) (Clock, bool) {
	for _, s := range r.Stops {
		if s.Station == station {
			return s.Time, true
		}
	}
	return 0, false
}

// First returns the earliest scheduled call of the run.
func (r Run) First() (RunStop, bool) {
	if len(r.Stops) == 0 {
		return RunStop{}, false
	}
	first := r.Stops[0]
	for _, s := range r.Stops[1:] {
		if s.Time < first.Time {
			first = s
		}
	}
	return first, true
}
