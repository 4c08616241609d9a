package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// GraphStore is the read-only slice of the graph contract the resolver
// enumerates structural paths with. REROUTES edges are traversable like any
// other, so resolution respects whatever topology outages left behind.
type GraphStore interface {
	ShortestPaths(ctx context.Context, start, stop models.StationID, k int) ([][]models.Station, error)
	LinesBetween(ctx context.Context, a, b models.StationID) ([]string, error)
}

// Timetable answers "next qualifying run" lookups during candidate scoring.
type Timetable interface {
	NextRun(ctx context.Context, line, from, to string, after models.Clock) (models.RunWindow, error)
}

// Options bound the resolver's work. MaxCandidates trades optimality for
// latency on station pairs served by many overlapping lines.
type Options struct {
	MaxCandidates int
	PathCount     int
	LookupTimeout time.Duration
}

const (
	defaultMaxCandidates = 100
	defaultPathCount     = 3
	defaultLookupTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = defaultMaxCandidates
	}
	if o.PathCount <= 0 {
		o.PathCount = defaultPathCount
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = defaultLookupTimeout
	}
	return o
}

// Resolver finds the fastest itinerary between two stations by enumerating
// structurally valid paths and scoring each against the timetable store.
// Resolution is read-only; concurrent calls are safe.
type Resolver struct {
	graph     GraphStore
	timetable Timetable
	opts      Options
	logger    *slog.Logger
}

func NewResolver(graph GraphStore, timetable Timetable, opts Options, logger *slog.Logger) *Resolver {
	return &Resolver{graph: graph, timetable: timetable, opts: opts.withDefaults(), logger: logger}
}

// candidate is one fully line-assigned version of a structural path: the
// station sequence plus one line label per hop.
type candidate struct {
	stations []models.Station
	lines    []string
}

// leg is one reduced hop of a candidate: a single ride on one line from the
// first station of the span to the last, no transfer inside.
type leg struct {
	line string
	from string
	to   string
}

// PlanTrip resolves the fastest itinerary from start to stop leaving at or
// after departAt. Returns ErrNoPath when no structural path exists or no
// candidate resolves against the timetable.
func (r *Resolver) PlanTrip(ctx context.Context, start, stop models.StationID, departAt models.Clock) (models.Itinerary, error) {
	paths, err := r.graph.ShortestPaths(ctx, start, stop, r.opts.PathCount)
	if err != nil {
		return models.Itinerary{}, err
	}

	candidates, err := r.enumerate(ctx, paths)
	if err != nil {
		return models.Itinerary{}, err
	}

	best, err := r.score(ctx, candidates, departAt)
	if err != nil {
		return models.Itinerary{}, err
	}
	return best, nil
}

// enumerate expands each structural path into line-assigned candidates via
// the Cartesian product of per-hop line sets, in insertion order, capped at
// MaxCandidates across all paths.
func (r *Resolver) enumerate(ctx context.Context, paths [][]models.Station) ([]candidate, error) {
	var candidates []candidate
	for _, stations := range paths {
		hopLines := make([][]string, 0, len(stations)-1)
		for i := 0; i+1 < len(stations); i++ {
			lines, err := r.graph.LinesBetween(ctx, stations[i].ID(), stations[i+1].ID())
			if err != nil {
				return nil, err
			}
			if len(lines) == 0 {
				return nil, fmt.Errorf("no line connects %q and %q: %w",
					stations[i].Name, stations[i+1].Name, models.ErrNoPath)
			}
			hopLines = append(hopLines, lines)
		}

		product(hopLines, func(assignment []string) bool {
			if len(candidates) >= r.opts.MaxCandidates {
				return false
			}
			lines := make([]string, len(assignment))
			copy(lines, assignment)
			candidates = append(candidates, candidate{stations: stations, lines: lines})
			return true
		})
		if len(candidates) >= r.opts.MaxCandidates {
			break
		}
	}
	return candidates, nil
}

// product walks the Cartesian product of the per-hop sets in insertion
// order, calling yield for each combination until it returns false.
func product(sets [][]string, yield func([]string) bool) {
	if len(sets) == 0 {
		yield(nil)
		return
	}
	assignment := make([]string, len(sets))
	var walk func(i int) bool
	walk = func(i int) bool {
		if i == len(sets) {
			return yield(assignment)
		}
		for _, v := range sets[i] {
			assignment[i] = v
			if !walk(i + 1) {
				return false
			}
		}
		return true
	}
	walk(0)
}

// reduce collapses consecutive hops on the same line into single legs.
// Express labels are normalized first, since the timetable store has no
// express-specific entries; staying on "7X" then "7" is not a transfer.
func reduce(c candidate) []leg {
	var legs []leg
	for i, line := range c.lines {
		normalized := NormalizeExpress(line)
		if len(legs) > 0 && legs[len(legs)-1].line == normalized {
			legs[len(legs)-1].to = c.stations[i+1].Name
			continue
		}
		legs = append(legs, leg{line: normalized, from: c.stations[i].Name, to: c.stations[i+1].Name})
	}
	return legs
}

// NormalizeExpress maps an express line label onto its local service, the
// timetable's key for both ("7X" -> "7").
func NormalizeExpress(line string) string {
	if len(line) > 1 && strings.HasSuffix(line, "X") {
		return strings.TrimSuffix(line, "X")
	}
	return line
}

type lookupKey struct {
	line  string
	from  string
	to    string
	after models.Clock
}

type lookupResult struct {
	window models.RunWindow
	err    error
}

// score walks every candidate's reduced legs against the timetable and
// picks the one with the smallest span from first departure to last
// arrival, ties broken by fewest transfers. Identical (line, station-pair,
// time) lookups repeat across candidates sharing a prefix, so results are
// memoized per invocation.
func (r *Resolver) score(ctx context.Context, candidates []candidate, departAt models.Clock) (models.Itinerary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.LookupTimeout)
	defer cancel()

	memo := make(map[lookupKey]lookupResult)
	lookup := func(key lookupKey) (models.RunWindow, error) {
		if cached, ok := memo[key]; ok {
			return cached.window, cached.err
		}
		window, err := r.timetable.NextRun(ctx, key.line, key.from, key.to, key.after)
		memo[key] = lookupResult{window: window, err: err}
		return window, err
	}

	var best models.Itinerary
	bestFound := false

	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}

		legs := reduce(c)
		itinerary := models.Itinerary{Legs: make([]models.ItineraryLeg, 0, len(legs))}
		clock := departAt
		resolved := true

		for _, l := range legs {
			window, err := lookup(lookupKey{line: l.line, from: l.from, to: l.to, after: clock})
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					resolved = false
					break
				}
				return models.Itinerary{}, err
			}
			itinerary.Legs = append(itinerary.Legs, models.ItineraryLeg{
				From:    l.from,
				To:      l.to,
				Line:    l.line,
				Departs: window.Departs,
				Arrives: window.Arrives,
			})
			clock = window.Arrives
		}
		if !resolved {
			continue
		}

		if !bestFound || better(itinerary, best) {
			best = itinerary
			bestFound = true
		}
	}

	if !bestFound {
		if err := ctx.Err(); err != nil {
			return models.Itinerary{}, fmt.Errorf("candidate scoring: %w", err)
		}
		return models.Itinerary{}, fmt.Errorf("no candidate resolved against the timetable: %w", models.ErrNoPath)
	}
	return best, nil
}

// better reports whether a beats b: shorter total duration, or equal
// duration with fewer transfers.
func better(a, b models.Itinerary) bool {
	if a.Duration() != b.Duration() {
		return a.Duration() < b.Duration()
	}
	return len(a.Legs) < len(b.Legs)
}
