package subwaydb

import (
	"context"
	"fmt"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// ShortestPaths returns up to k topologically shortest station sequences
// between start and stop. Traversal is unweighted and undirected, crosses
// both CONNECTS and REROUTES edges, and never visits a station whose status
// is OutOfOrder. Returns ErrNoPath when the stations are disconnected.
func (q *Queries) ShortestPaths(ctx context.Context, start, stop models.StationID, k int) ([][]models.Station, error) {
	if k < 1 {
		k = 1
	}

	stations, err := q.AllStations(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[models.StationID]models.Station, len(stations))
	for _, s := range stations {
		byID[s.ID()] = s
	}
	if _, ok := byID[start]; !ok {
		return nil, fmt.Errorf("path start %q: %w", start.Name, models.ErrNotFound)
	}
	if _, ok := byID[stop]; !ok {
		return nil, fmt.Errorf("path stop %q: %w", stop.Name, models.ErrNotFound)
	}
	if byID[start].Status != models.StatusNormal || byID[stop].Status != models.StatusNormal {
		return nil, fmt.Errorf("endpoint out of order: %w", models.ErrNoPath)
	}

	adjacency, err := q.adjacency(ctx, byID)
	if err != nil {
		return nil, err
	}

	dist := bfsDistances(adjacency, start)
	if _, reached := dist[stop]; !reached {
		return nil, fmt.Errorf("%q to %q: %w", start.Name, stop.Name, models.ErrNoPath)
	}

	// Walk backwards from stop along strictly-decreasing distances to
	// enumerate every shortest path, capped at k.
	var paths [][]models.Station
	var walk func(node models.StationID, suffix []models.StationID)
	walk = func(node models.StationID, suffix []models.StationID) {
		if len(paths) >= k {
			return
		}
		suffix = append(suffix, node)
		if node == start {
			path := make([]models.Station, len(suffix))
			for i, id := range suffix {
				path[len(suffix)-1-i] = byID[id]
			}
			paths = append(paths, path)
			return
		}
		for _, prev := range adjacency[node] {
			if d, ok := dist[prev]; ok && d == dist[node]-1 {
				walk(prev, suffix)
			}
		}
	}
	walk(stop, nil)

	return paths, nil
}

// adjacency builds the undirected neighbor map over in-service stations.
func (q *Queries) adjacency(ctx context.Context, byID map[models.StationID]models.Station) (map[models.StationID][]models.StationID, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT start_name, start_borough, start_entrance, end_name, end_borough, end_entrance FROM edges;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	adjacency := make(map[models.StationID][]models.StationID)
	addNeighbor := func(a, b models.StationID) {
		for _, existing := range adjacency[a] {
			if existing == b {
				return
			}
		}
		adjacency[a] = append(adjacency[a], b)
	}

	for rows.Next() {
		var a, b models.StationID
		if err := rows.Scan(&a.Name, &a.Borough, &a.Entrance, &b.Name, &b.Borough, &b.Entrance); err != nil {
			return nil, err
		}
		if a == b {
			// Terminus self-loop; carries no traversable hop.
			continue
		}
		sa, oka := byID[a]
		sb, okb := byID[b]
		if !oka || !okb || sa.Status != models.StatusNormal || sb.Status != models.StatusNormal {
			continue
		}
		addNeighbor(a, b)
		addNeighbor(b, a)
	}
	return adjacency, rows.Err()
}

func bfsDistances(adjacency map[models.StationID][]models.StationID, start models.StationID) map[models.StationID]int {
	dist := map[models.StationID]int{start: 0}
	queue := []models.StationID{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[node] {
			if _, seen := dist[next]; !seen {
				dist[next] = dist[node] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}
