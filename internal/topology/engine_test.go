package topology_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarthenmalai/SubwayScheduler/internal/appconf"
	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/topology"
	"github.com/omarthenmalai/SubwayScheduler/subwaydb"
)

type sqlStore struct {
	client *subwaydb.Client
}

func (s sqlStore) Transact(ctx context.Context, fn func(ops topology.Ops) error) error {
	return s.client.Transact(ctx, func(q *subwaydb.Queries) error { return fn(q) })
}

func newTestEngine(t *testing.T) (*topology.Engine, *subwaydb.Client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := subwaydb.NewClient(subwaydb.NewConfig(":memory:", appconf.Test, false), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return topology.NewEngine(sqlStore{client}, logger), client
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

// seedChain creates stations joined in order by segments on one line.
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

// edgeKey flattens an edge for set comparison, ignoring store ids. Segment
// direction is canonicalized because traversal treats edges as undirected.
func edgeKey(e models.Edge) string {
	a, b := e.Start.Name, e.End.Name
	if e.Kind == models.EdgeConnects && b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s|%s>%s|%s|%v", e.Kind, a, b, e.Line, e.Tokens)
}

func allEdgeKeys(t *testing.T, client *subwaydb.Client) []string {
	t.Helper()
	edges, err := client.Queries.AllEdges(context.Background())
	require.NoError(t, err)
	keys := make([]string, 0, len(edges))
	for _, e := range edges {
		keys = append(keys, edgeKey(e))
	}
	sort.Strings(keys)
	return keys
}

func TestEngine_OutageInteriorStation(t *testing.T) {
	engine, client := newTestEngine(t)
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B", "C")

	result, err := engine.SetOutOfOrder(ctx, id("B"))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	got, err := client.Queries.GetStation(ctx, id("B"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOutOfOrder, got.Status)

	edges, err := client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, models.EdgeReroutes, edges[0].Kind)
	assert.Equal(t, id("A"), edges[0].Start)
	assert.Equal(t, id("C"), edges[0].End)
	assert.Equal(t, "1", edges[0].Line)
	require.Len(t, edges[0].Tokens, 1)
	assert.Equal(t, id("B"), edges[0].Tokens[0].Station)
	assert.Equal(t, models.TokenPlain, edges[0].Tokens[0].Kind)
}

func TestEngine_OutageTerminus(t *testing.T) {
	engine, client := newTestEngine(t)
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B")

	_, err := engine.SetOutOfOrder(ctx, id("B"))
	require.NoError(t, err)

	edges, err := client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, id("A"), edges[0].Start)
	assert.Equal(t, id("A"), edges[0].End)
	require.Len(t, edges[0].Tokens, 1)
	assert.Equal(t, models.TokenLineEnd, edges[0].Tokens[0].Kind)

	// Restore recreates only A-B.
	_, err = engine.SetNormal(ctx, id("B"))
	require.NoError(t, err)

	edges, err = client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, models.EdgeConnects, edges[0].Kind)
	assert.Equal(t, id("A"), edges[0].Start)
	assert.Equal(t, id("B"), edges[0].End)
}

func TestEngine_RoundTripRestoresExactTopology(t *testing.T) {
	engine, client := newTestEngine(t)
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B", "C", "D")
	seedChain(t, client, "2", "B", "E")

	before := allEdgeKeys(t, client)

	_, err := engine.SetOutOfOrder(ctx, id("B"))
	require.NoError(t, err)
	_, err = engine.SetNormal(ctx, id("B"))
	require.NoError(t, err)

	assert.Equal(t, before, allEdgeKeys(t, client))

	got, err := client.Queries.GetStation(ctx, id("B"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNormal, got.Status)
}

func TestEngine_RoundTripWithOtherOutageInProgress(t *testing.T) {
	// B and C both fail; bringing only B back must reproduce B's original
	// segments while C stays spliced out.
	engine, client := newTestEngine(t)
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B", "C", "D")

	_, err := engine.SetOutOfOrder(ctx, id("C"))
	require.NoError(t, err)
	_, err = engine.SetOutOfOrder(ctx, id("B"))
	require.NoError(t, err)

	edges, err := client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, id("A"), edges[0].Start)
	assert.Equal(t, id("D"), edges[0].End)
	require.Len(t, edges[0].Tokens, 2)
	assert.Equal(t, id("B"), edges[0].Tokens[0].Station)
	assert.Equal(t, id("C"), edges[0].Tokens[1].Station)

	_, err = engine.SetNormal(ctx, id("B"))
	require.NoError(t, err)

	edges, err = client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, models.EdgeConnects, edges[0].Kind)
	assert.Equal(t, id("A"), edges[0].Start)
	assert.Equal(t, id("B"), edges[0].End)
	assert.Equal(t, models.EdgeReroutes, edges[1].Kind)
	assert.Equal(t, id("B"), edges[1].Start)
	assert.Equal(t, id("D"), edges[1].End)
	require.Len(t, edges[1].Tokens, 1)
	assert.Equal(t, id("C"), edges[1].Tokens[0].Station)
}

func TestEngine_OrderIndependentRestore(t *testing.T) {
	run := func(t *testing.T, removeOrder, restoreOrder []string) []string {
		engine, client := newTestEngine(t)
		ctx := context.Background()
		seedChain(t, client, "1", "A", "B", "C", "D", "E")

		for _, n := range removeOrder {
			_, err := engine.SetOutOfOrder(ctx, id(n))
			require.NoError(t, err)
		}
		for _, n := range restoreOrder {
			_, err := engine.SetNormal(ctx, id(n))
			require.NoError(t, err)
		}
		return allEdgeKeys(t, client)
	}

	original := func(t *testing.T) []string {
		_, client := newTestEngine(t)
		seedChain(t, client, "1", "A", "B", "C", "D", "E")
		return allEdgeKeys(t, client)
	}(t)

	testCases := []struct {
		name    string
		remove  []string
		restore []string
	}{
		{name: "LIFO", remove: []string{"B", "C"}, restore: []string{"C", "B"}},
		{name: "FIFO", remove: []string{"B", "C"}, restore: []string{"B", "C"}},
		{name: "NonAdjacent", remove: []string{"B", "D"}, restore: []string{"D", "B"}},
		{name: "ThreeStations", remove: []string{"D", "B", "C"}, restore: []string{"B", "D", "C"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, original, run(t, tc.remove, tc.restore))
		})
	}
}

func TestEngine_TerminusChainRemoveAndRestore(t *testing.T) {
	// Take out the line start, then its neighbor; restore in reverse.
	engine, client := newTestEngine(t)
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B", "C")
	original := allEdgeKeys(t, client)

	_, err := engine.SetOutOfOrder(ctx, id("A"))
	require.NoError(t, err)
	_, err = engine.SetOutOfOrder(ctx, id("B"))
	require.NoError(t, err)

	// Everything now hangs off C as a self-loop.
	edges, err := client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, id("C"), edges[0].Start)
	assert.Equal(t, id("C"), edges[0].End)
	require.Len(t, edges[0].Tokens, 2)
	assert.Equal(t, models.TokenLineStart, edges[0].Tokens[0].Kind)

	_, err = engine.SetNormal(ctx, id("B"))
	require.NoError(t, err)
	_, err = engine.SetNormal(ctx, id("A"))
	require.NoError(t, err)

	assert.Equal(t, original, allEdgeKeys(t, client))
}

func TestEngine_OutageWithCanonicallyStoredSegments(t *testing.T) {
	// Ingest stores each segment with the lexicographically smaller station
	// first, so an interior station can sit at the stored End of both of its
	// edges. The outage must still treat it as interior and the round trip
	// must still reproduce the original segments.
	engine, client := newTestEngine(t)
	ctx := context.Background()
	for _, n := range []string{"Astor Pl", "Union Sq", "Bleecker St"} {
		require.NoError(t, client.Queries.MergeStation(ctx, station(n, "6")))
	}
	require.NoError(t, client.Queries.CreateSegment(ctx, id("Astor Pl"), id("Union Sq"), "6"))
	require.NoError(t, client.Queries.CreateSegment(ctx, id("Bleecker St"), id("Union Sq"), "6"))
	before := allEdgeKeys(t, client)

	result, err := engine.SetOutOfOrder(ctx, id("Union Sq"))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	edges, err := client.Queries.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, models.EdgeReroutes, edges[0].Kind)
	assert.False(t, edges[0].SelfLoop())
	require.Len(t, edges[0].Tokens, 1)
	assert.Equal(t, id("Union Sq"), edges[0].Tokens[0].Station)
	assert.Equal(t, models.TokenPlain, edges[0].Tokens[0].Kind)

	_, err = engine.SetNormal(ctx, id("Union Sq"))
	require.NoError(t, err)
	assert.Equal(t, before, allEdgeKeys(t, client))
}

func TestEngine_OutageRequiresNormalStatus(t *testing.T) {
	engine, client := newTestEngine(t)
	ctx := context.Background()
	seedChain(t, client, "1", "A", "B", "C")

	_, err := engine.SetOutOfOrder(ctx, id("B"))
	require.NoError(t, err)

	_, err = engine.SetOutOfOrder(ctx, id("B"))
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = engine.SetNormal(ctx, id("A"))
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestEngine_UnknownStation(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.SetOutOfOrder(context.Background(), id("Nowhere"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}
