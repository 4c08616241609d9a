package topology

import "github.com/omarthenmalai/SubwayScheduler/internal/models"

// segmentSpec and rerouteSpec describe edges a plan wants created. Plans are
// pure values computed from fetched edges; applying them is the engine's job.
type segmentSpec struct {
	Start models.StationID
	End   models.StationID
	Line  string
}

type rerouteSpec struct {
	Start  models.StationID
	End    models.StationID
	Line   string
	Tokens []models.RerouteToken
}

type outagePlan struct {
	Reroutes []rerouteSpec
	Warnings []models.TopologyWarning
}

type restorePlan struct {
	Segments []segmentSpec
	Reroutes []rerouteSpec
	Warnings []models.TopologyWarning
}

// lineSide is one side of a station on one line: the surviving neighbor (nil
// when the side is an open line end) and any reroute tokens already spliced
// out on that side.
type lineSide struct {
	present  bool
	neighbor *models.StationID
	tokens   []models.RerouteToken
}

// planOutage computes the reroute edges that must replace the deleted edges
// around a station going out of order. Token lists are kept in physical
// travel order: everything already removed on the inbound side, then the
// station itself, then everything removed on the outbound side. An
// inconsistent line is skipped with a warning and the outage proceeds for
// the lines that are consistent.
func planOutage(station models.StationID, edges []models.Edge) outagePlan {
	var plan outagePlan

	var lines []string
	byLine := make(map[string][]models.Edge)
	for _, e := range edges {
		if _, seen := byLine[e.Line]; !seen {
			lines = append(lines, e.Line)
		}
		byLine[e.Line] = append(byLine[e.Line], e)
	}

	for _, line := range lines {
		in, out, warnings := classifySides(station, line, byLine[line])
		plan.Warnings = append(plan.Warnings, warnings...)

		if !in.present && !out.present {
			plan.Warnings = append(plan.Warnings, models.TopologyWarning{
				Station: station, Line: line,
				Reason: "station is neither start nor end of any edge on the line",
			})
			continue
		}

		token := models.RerouteToken{Station: station, Kind: models.TokenPlain}
		switch {
		case !in.present:
			token.Kind = models.TokenLineStart
		case !out.present:
			token.Kind = models.TokenLineEnd
		}

		tokens := make([]models.RerouteToken, 0, len(in.tokens)+1+len(out.tokens))
		tokens = append(tokens, in.tokens...)
		tokens = append(tokens, token)
		tokens = append(tokens, out.tokens...)

		// Anchor the reroute on the surviving neighbors. A missing side
		// collapses onto the other side's neighbor as a self-loop; with no
		// neighbor left at all there is nothing to hang the edge on and the
		// line's chain is dropped.
		anchorStart, anchorEnd := in.neighbor, out.neighbor
		if anchorStart == nil {
			anchorStart = anchorEnd
		}
		if anchorEnd == nil {
			anchorEnd = in.neighbor
		}
		if anchorStart == nil || anchorEnd == nil {
			plan.Warnings = append(plan.Warnings, models.TopologyWarning{
				Station: station, Line: line,
				Reason: "no surviving station on the line; reroute chain dropped",
			})
			continue
		}

		plan.Reroutes = append(plan.Reroutes, rerouteSpec{
			Start: *anchorStart, End: *anchorEnd, Line: line, Tokens: tokens,
		})
	}
	return plan
}

// classifySides sorts a line's edges into the station's two sides. Reroutes
// carry travel-ordered undo logs, so their stored orientation is
// authoritative: End == station holds the inbound chain, Start == station
// the outbound one. A self-loop reroute anchored at the station itself
// represents an open line end; its terminus marker says which side it sits
// on. Plain segments are stored in canonical order, not travel order, so a
// segment's orientation is only a hint: it takes the side its orientation
// suggests when that side is free, and the opposite side otherwise.
func classifySides(station models.StationID, line string, edges []models.Edge) (in, out lineSide, warnings []models.TopologyWarning) {
	var segments []models.Edge

	for _, e := range edges {
		if e.Kind != models.EdgeReroutes {
			if e.Start == station || e.End == station {
				segments = append(segments, e)
				continue
			}
			warnings = append(warnings, models.TopologyWarning{
				Station: station, Line: line, Reason: "fetched edge does not touch the station",
			})
			continue
		}
		switch {
		case e.SelfLoop() && e.Start == station:
			if len(e.Tokens) == 0 {
				warnings = append(warnings, models.TopologyWarning{
					Station: station, Line: line, Reason: "self-loop reroute with empty undo log",
				})
				continue
			}
			if e.Tokens[0].Kind == models.TokenLineStart {
				in = lineSide{present: true, tokens: e.Tokens}
			} else if e.Tokens[len(e.Tokens)-1].Kind == models.TokenLineEnd {
				out = lineSide{present: true, tokens: e.Tokens}
			} else {
				warnings = append(warnings, models.TopologyWarning{
					Station: station, Line: line, Reason: "self-loop reroute without a terminus marker",
				})
			}
		case e.End == station:
			n := e.Start
			in = lineSide{present: true, neighbor: &n, tokens: e.Tokens}
		case e.Start == station:
			n := e.End
			out = lineSide{present: true, neighbor: &n, tokens: e.Tokens}
		default:
			warnings = append(warnings, models.TopologyWarning{
				Station: station, Line: line, Reason: "fetched edge does not touch the station",
			})
		}
	}

	for _, e := range segments {
		n := e.Start
		side := &in
		if e.Start == station {
			n = e.End
			side = &out
		}
		if side.present {
			if side == &in {
				side = &out
			} else {
				side = &in
			}
		}
		if side.present {
			warnings = append(warnings, models.TopologyWarning{
				Station: station, Line: line, Reason: "more than two edges touch the station on the line",
			})
			continue
		}
		*side = lineSide{present: true, neighbor: &n}
	}
	return in, out, warnings
}

// planRestore computes the edges that must replace one reroute when the
// given station returns to service. The token position decides the shape:
// an only token recreates plain segments, an end token peels one segment off
// a surviving reroute, a middle token splits the reroute in two.
func planRestore(station models.StationID, r models.Edge) restorePlan {
	var plan restorePlan

	idx := r.TokenIndex(station)
	if idx < 0 {
		plan.Warnings = append(plan.Warnings, models.TopologyWarning{
			Station: station, Line: r.Line, Reason: "reroute does not contain the station",
		})
		return plan
	}
	left := r.Tokens[:idx]
	right := r.Tokens[idx+1:]

	anchorLeft, anchorRight := restoreAnchors(r)

	switch {
	case len(left) == 0 && anchorLeft != nil:
		plan.Segments = append(plan.Segments, segmentSpec{Start: *anchorLeft, End: station, Line: r.Line})
	case len(left) > 0 && anchorLeft != nil:
		plan.Reroutes = append(plan.Reroutes, rerouteSpec{Start: *anchorLeft, End: station, Line: r.Line, Tokens: left})
	case len(left) > 0:
		// Open line start: the remaining chain hangs off the restored
		// station as a self-loop.
		plan.Reroutes = append(plan.Reroutes, rerouteSpec{Start: station, End: station, Line: r.Line, Tokens: left})
	}

	switch {
	case len(right) == 0 && anchorRight != nil:
		plan.Segments = append(plan.Segments, segmentSpec{Start: station, End: *anchorRight, Line: r.Line})
	case len(right) > 0 && anchorRight != nil:
		plan.Reroutes = append(plan.Reroutes, rerouteSpec{Start: station, End: *anchorRight, Line: r.Line, Tokens: right})
	case len(right) > 0:
		plan.Reroutes = append(plan.Reroutes, rerouteSpec{Start: station, End: station, Line: r.Line, Tokens: right})
	}

	return plan
}

// restoreAnchors resolves a reroute's outer neighbors. A self-loop is open
// on the side its terminus marker names; a regular reroute is anchored on
// both of its endpoints.
func restoreAnchors(r models.Edge) (left, right *models.StationID) {
	if !r.SelfLoop() {
		s, e := r.Start, r.End
		return &s, &e
	}
	anchor := r.Start
	if len(r.Tokens) > 0 && r.Tokens[0].Kind == models.TokenLineStart {
		return nil, &anchor
	}
	return &anchor, nil
}
