package models

// StationStatus describes whether a station is currently in service.
type StationStatus string

const (
	StatusNormal     StationStatus = "Normal"
	StatusOutOfOrder StationStatus = "Out of Order"
)

// StationID is the identity of a station node: one physical entrance of one
// named station. Two entrances of the same station are distinct nodes that
// share a display name. Lines are deliberately not part of identity, since a
// station's line set can change without it becoming a different entrance.
type StationID struct {
	Name     string `json:"name"`
	Borough  string `json:"borough"`
	Entrance string `json:"entrance"`
}

// Station is a node on the subway graph.
type Station struct {
	Name      string        `json:"name"`
	Borough   string        `json:"borough"`
	Entrance  string        `json:"entrance"`
	Lines     []string      `json:"lines"`
	Status    StationStatus `json:"status"`
	Latitude  float64       `json:"latitude,omitempty"`
	Longitude float64       `json:"longitude,omitempty"`
}

// ID returns the station's identity triple.
func (s Station) ID() StationID {
	return StationID{Name: s.Name, Borough: s.Borough, Entrance: s.Entrance}
}

// Equal reports whether two stations are the same graph node. Identity is
// the (name, borough, entrance) triple, applied uniformly everywhere.
func (s Station) Equal(other Station) bool {
	return s.ID() == other.ID()
}

// HasLine reports whether the station serves the given line.
func (s Station) HasLine(line string) bool {
	for _, l := range s.Lines {
		if l == line {
			return true
		}
	}
	return false
}
