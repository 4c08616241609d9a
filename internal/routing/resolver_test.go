package routing_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarthenmalai/SubwayScheduler/internal/appconf"
	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/routing"
	"github.com/omarthenmalai/SubwayScheduler/subwaydb"
)

func newTestResolver(t *testing.T, opts routing.Options) (*routing.Resolver, *subwaydb.Client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := subwaydb.NewClient(subwaydb.NewConfig(":memory:", appconf.Test, false), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return routing.NewResolver(client.Queries, client.Queries, opts, logger), client
}

func station(name string, lines ...string) models.Station {
	return models.Station{
		Name:     name,
		Borough:  "Manhattan",
		Entrance: "Main St",
		Lines:    lines,
		Status:   models.StatusNormal,
	}
}

func id(name string) models.StationID {
	return models.StationID{Name: name, Borough: "Manhattan", Entrance: "Main St"}
}

func seedChain(t *testing.T, client *subwaydb.Client, line string, names ...string) {
	t.Helper()
	ctx := context.Background()
	for _, n := range names {
		require.NoError(t, client.Queries.MergeStation(ctx, station(n, line)))
	}
	for i := 0; i+1 < len(names); i++ {
		require.NoError(t, client.Queries.CreateSegment(ctx, id(names[i]), id(names[i+1]), line))
	}
}

func seedRun(t *testing.T, client *subwaydb.Client, line string, stops ...models.RunStop) {
	t.Helper()
	run := models.Run{Line: line, Direction: models.DirectionNorth, Stops: stops}
	require.NoError(t, client.BulkInsertRuns(context.Background(), []models.Run{run}))
}

func at(station string, clock string) models.RunStop {
	return models.RunStop{Station: station, Time: models.MustClock(clock)}
}

func TestResolver_SingleLine(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	seedChain(t, client, "1", "A", "B", "C")
	seedRun(t, client, "1", at("A", "10:00"), at("B", "10:05"), at("C", "10:12"))

	it, err := resolver.PlanTrip(context.Background(), id("A"), id("C"), models.MustClock("09:30"))
	require.NoError(t, err)

	require.Len(t, it.Legs, 1)
	assert.Equal(t, "1", it.Legs[0].Line)
	assert.Equal(t, "A", it.Legs[0].From)
	assert.Equal(t, "C", it.Legs[0].To)
	assert.Equal(t, models.MustClock("10:00"), it.Legs[0].Departs)
	assert.Equal(t, models.MustClock("10:12"), it.Legs[0].Arrives)
	assert.Equal(t, 12, it.Duration())
}

func TestResolver_PicksFasterLine(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	seedChain(t, client, "4", "P", "Q")
	seedChain(t, client, "5", "P", "Q")
	seedRun(t, client, "4", at("P", "10:00"), at("Q", "10:20"))
	seedRun(t, client, "5", at("P", "10:05"), at("Q", "10:12"))

	it, err := resolver.PlanTrip(context.Background(), id("P"), id("Q"), models.MustClock("09:55"))
	require.NoError(t, err)

	require.Len(t, it.Legs, 1)
	assert.Equal(t, "5", it.Legs[0].Line)
	assert.Equal(t, 7, it.Duration())
}

func TestResolver_TransferAwaitsArrival(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	seedChain(t, client, "1", "A", "B")
	seedChain(t, client, "2", "B", "C")
	seedRun(t, client, "1", at("A", "10:00"), at("B", "10:10"))
	// Departs B before the transfer arrives; must not be boarded.
	seedRun(t, client, "2", at("B", "10:05"), at("C", "10:15"))
	seedRun(t, client, "2", at("B", "10:14"), at("C", "10:24"))

	it, err := resolver.PlanTrip(context.Background(), id("A"), id("C"), models.MustClock("09:00"))
	require.NoError(t, err)

	require.Len(t, it.Legs, 2)
	assert.Equal(t, "1", it.Legs[0].Line)
	assert.Equal(t, "2", it.Legs[1].Line)
	assert.Equal(t, models.MustClock("10:14"), it.Legs[1].Departs)
	assert.GreaterOrEqual(t, int(it.Legs[1].Departs), int(it.Legs[0].Arrives))
	assert.Equal(t, 1, it.Transfers())
}

func TestResolver_ExpressHopsCollapse(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	seedChain(t, client, "7X", "A", "B")
	seedChain(t, client, "7", "B", "C")
	seedRun(t, client, "7", at("A", "10:00"), at("B", "10:04"), at("C", "10:09"))

	it, err := resolver.PlanTrip(context.Background(), id("A"), id("C"), models.MustClock("09:00"))
	require.NoError(t, err)

	// "7X" then "7" is one ride, not a transfer.
	require.Len(t, it.Legs, 1)
	assert.Equal(t, "7", it.Legs[0].Line)
	assert.Equal(t, "A", it.Legs[0].From)
	assert.Equal(t, "C", it.Legs[0].To)
}

func TestResolver_AvoidsOutOfOrderStation(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B", "C")
	seedChain(t, client, "2", "A", "D", "C")
	seedRun(t, client, "1", at("A", "10:00"), at("B", "10:05"), at("C", "10:10"))
	seedRun(t, client, "2", at("A", "10:02"), at("D", "10:08"), at("C", "10:16"))

	require.NoError(t, client.Queries.SetStationStatus(ctx, id("B"), models.StatusOutOfOrder))

	it, err := resolver.PlanTrip(ctx, id("A"), id("C"), models.MustClock("09:00"))
	require.NoError(t, err)

	require.Len(t, it.Legs, 1)
	assert.Equal(t, "2", it.Legs[0].Line)
}

func TestResolver_NoStructuralPath(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	ctx := context.Background()
	require.NoError(t, client.Queries.MergeStation(ctx, station("A", "1")))
	require.NoError(t, client.Queries.MergeStation(ctx, station("Z", "9")))

	_, err := resolver.PlanTrip(ctx, id("A"), id("Z"), models.MustClock("09:00"))
	assert.ErrorIs(t, err, models.ErrNoPath)
}

func TestResolver_NoServiceAfterDeparture(t *testing.T) {
	resolver, client := newTestResolver(t, routing.Options{})
	seedChain(t, client, "1", "A", "B")
	seedRun(t, client, "1", at("A", "06:00"), at("B", "06:10"))

	_, err := resolver.PlanTrip(context.Background(), id("A"), id("B"), models.MustClock("23:00"))
	assert.ErrorIs(t, err, models.ErrNoPath)
}

// fakeGraph and fakeTimetable drive selection behavior directly, without a
// store underneath.
type fakeGraph struct {
	paths [][]models.Station
	lines map[[2]string][]string
}

func (f fakeGraph) ShortestPaths(_ context.Context, _, _ models.StationID, _ int) ([][]models.Station, error) {
	return f.paths, nil
}

func (f fakeGraph) LinesBetween(_ context.Context, a, b models.StationID) ([]string, error) {
	if lines, ok := f.lines[[2]string{a.Name, b.Name}]; ok {
		return lines, nil
	}
	return f.lines[[2]string{b.Name, a.Name}], nil
}

type fakeTimetable struct {
	// windows maps line to (departs, arrives) offsets applied to the query
	// time.
	windows map[string][2]models.Clock
}

func (f fakeTimetable) NextRun(_ context.Context, line, _, _ string, after models.Clock) (models.RunWindow, error) {
	w, ok := f.windows[line]
	if !ok {
		return models.RunWindow{}, models.ErrNotFound
	}
	return models.RunWindow{Departs: after + w[0], Arrives: after + w[1]}, nil
}

func fakePath(names ...string) []models.Station {
	stations := make([]models.Station, len(names))
	for i, n := range names {
		stations[i] = station(n)
	}
	return stations
}

func TestResolver_CandidateCapStopsEnumeration(t *testing.T) {
	graph := fakeGraph{
		paths: [][]models.Station{fakePath("A", "B")},
		lines: map[[2]string][]string{{"A", "B"}: {"slow", "fast"}},
	}
	timetable := fakeTimetable{windows: map[string][2]models.Clock{
		"slow": {0, 30},
		"fast": {0, 5},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	capped := routing.NewResolver(graph, timetable, routing.Options{MaxCandidates: 1}, logger)
	it, err := capped.PlanTrip(context.Background(), id("A"), id("B"), models.MustClock("10:00"))
	require.NoError(t, err)
	assert.Equal(t, "slow", it.Legs[0].Line)

	open := routing.NewResolver(graph, timetable, routing.Options{}, logger)
	it, err = open.PlanTrip(context.Background(), id("A"), id("B"), models.MustClock("10:00"))
	require.NoError(t, err)
	assert.Equal(t, "fast", it.Legs[0].Line)
}

func TestResolver_TieBreakPrefersFewerTransfers(t *testing.T) {
	graph := fakeGraph{
		paths: [][]models.Station{
			fakePath("A", "B", "C"),
			fakePath("A", "C"),
		},
		lines: map[[2]string][]string{
			{"A", "B"}: {"1"},
			{"B", "C"}: {"2"},
			{"A", "C"}: {"9"},
		},
	}
	// Both options span 20 minutes end to end.
	timetable := fakeTimetable{windows: map[string][2]models.Clock{
		"1": {0, 10},
		"2": {0, 10},
		"9": {0, 20},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := routing.NewResolver(graph, timetable, routing.Options{}, logger)

	it, err := resolver.PlanTrip(context.Background(), id("A"), id("C"), models.MustClock("10:00"))
	require.NoError(t, err)
	require.Len(t, it.Legs, 1)
	assert.Equal(t, "9", it.Legs[0].Line)
	assert.Equal(t, 20, it.Duration())
}

func TestNormalizeExpress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7X", "7"},
		{"6X", "6"},
		{"FX", "F"},
		{"X", "X"},
		{"A", "A"},
		{"7", "7"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, routing.NormalizeExpress(tc.in), tc.in)
	}
}
