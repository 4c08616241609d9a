package models

// EdgeKind distinguishes the two relationship kinds on the graph.
type EdgeKind string

const (
	// EdgeConnects is a direct, currently-traversable hop between two
	// adjacent stations on one line.
	EdgeConnects EdgeKind = "CONNECTS"
	// EdgeReroutes stands in for one or more out-of-order stations on one
	// line and carries the ordered undo log needed to restore them.
	EdgeReroutes EdgeKind = "REROUTES"
)

// TokenKind tags a reroute token. A removed station that was the first or
// last stop on its line is marked so the chain can be reattached to an open
// end when it is restored.
type TokenKind int

const (
	TokenPlain TokenKind = iota
	TokenLineStart
	TokenLineEnd
)

// RerouteToken is one entry in a reroute's undo log. Tokens are kept in
// physical travel order along the line.
type RerouteToken struct {
	Station StationID `json:"station"`
	Kind    TokenKind `json:"kind"`
}

// Edge is a directed relationship between two stations on one line. Tokens
// is nil for CONNECTS edges. Cost is constant 1 for every edge; traversal is
// unweighted.
type Edge struct {
	ID     int64
	Kind   EdgeKind
	Start  StationID
	End    StationID
	Line   string
	Tokens []RerouteToken
}

// SelfLoop reports whether the edge starts and ends at the same node. A
// terminus reroute is stored as a self-loop on the surviving neighbor.
func (e Edge) SelfLoop() bool {
	return e.Start == e.End
}

// TokenIndex returns the position of the given station in the undo log, or
// -1 if the station does not appear.
func (e Edge) TokenIndex(id StationID) int {
	for i, tok := range e.Tokens {
		if tok.Station == id {
			return i
		}
	}
	return -1
}
