package subwaydb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// CreateStation inserts a station node. Fails if the identity triple already
// exists.
func (q *Queries) CreateStation(ctx context.Context, s models.Station) error {
	lines, err := json.Marshal(s.Lines)
	if err != nil {
		return fmt.Errorf("marshal lines: %w", err)
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO stations (name, borough, entrance, lines, status, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`, s.Name, s.Borough, s.Entrance, string(lines), string(s.Status), s.Latitude, s.Longitude)
	if err != nil {
		return fmt.Errorf("error inserting station: %w", err)
	}
	return nil
}

// MergeStation upserts a station keyed by its identity triple, the
// idempotent form used at ingestion.
func (q *Queries) MergeStation(ctx context.Context, s models.Station) error {
	lines, err := json.Marshal(s.Lines)
	if err != nil {
		return fmt.Errorf("marshal lines: %w", err)
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO stations (name, borough, entrance, lines, status, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, borough, entrance) DO UPDATE SET
			lines = excluded.lines,
			latitude = excluded.latitude,
			longitude = excluded.longitude;
	`, s.Name, s.Borough, s.Entrance, string(lines), string(s.Status), s.Latitude, s.Longitude)
	if err != nil {
		return fmt.Errorf("error merging station: %w", err)
	}
	return nil
}

func scanStation(row interface{ Scan(...interface{}) error }) (models.Station, error) {
	var s models.Station
	var lines string
	var status string
	var lat, lon sql.NullFloat64
	if err := row.Scan(&s.Name, &s.Borough, &s.Entrance, &lines, &status, &lat, &lon); err != nil {
		return models.Station{}, err
	}
	if err := json.Unmarshal([]byte(lines), &s.Lines); err != nil {
		return models.Station{}, fmt.Errorf("unmarshal lines: %w", err)
	}
	s.Status = models.StationStatus(status)
	s.Latitude = lat.Float64
	s.Longitude = lon.Float64
	return s, nil
}

const stationColumns = `name, borough, entrance, lines, status, latitude, longitude`

// GetStation fetches one station by its identity triple.
func (q *Queries) GetStation(ctx context.Context, id models.StationID) (models.Station, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+stationColumns+` FROM stations
		WHERE name = ? AND borough = ? AND entrance = ?;
	`, id.Name, id.Borough, id.Entrance)
	s, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Station{}, fmt.Errorf("station %q (%s): %w", id.Name, id.Entrance, models.ErrNotFound)
	}
	return s, err
}

// GetStationByName fetches the first entrance of the named station. Display
// queries address stations by name; entrances share name, lines, and status.
func (q *Queries) GetStationByName(ctx context.Context, name string) (models.Station, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+stationColumns+` FROM stations
		WHERE name = ? ORDER BY borough, entrance LIMIT 1;
	`, name)
	s, err := scanStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Station{}, fmt.Errorf("station %q: %w", name, models.ErrNotFound)
	}
	return s, err
}

func (q *Queries) queryStations(ctx context.Context, query string, args ...interface{}) ([]models.Station, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var stations []models.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// AllStations lists every station node.
func (q *Queries) AllStations(ctx context.Context) ([]models.Station, error) {
	return q.queryStations(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY borough, name, entrance;`)
}

// ActiveStations lists stations whose status is Normal.
func (q *Queries) ActiveStations(ctx context.Context) ([]models.Station, error) {
	return q.queryStations(ctx, `
		SELECT `+stationColumns+` FROM stations WHERE status = ? ORDER BY borough, name, entrance;
	`, string(models.StatusNormal))
}

// StationsByLine lists stations serving the given line, in line order as far
// as the edge set defines one (stations joined through edges on the line).
func (q *Queries) StationsByLine(ctx context.Context, line string) ([]models.Station, error) {
	return q.queryStations(ctx, `
		SELECT DISTINCT s.name, s.borough, s.entrance, s.lines, s.status, s.latitude, s.longitude
		FROM stations s
		JOIN edges e ON (s.name = e.start_name AND s.borough = e.start_borough AND s.entrance = e.start_entrance)
		            OR (s.name = e.end_name AND s.borough = e.end_borough AND s.entrance = e.end_entrance)
		WHERE e.line = ?
		ORDER BY s.borough, s.name, s.entrance;
	`, line)
}

// SetStationStatus updates a station's status.
func (q *Queries) SetStationStatus(ctx context.Context, id models.StationID, status models.StationStatus) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE stations SET status = ? WHERE name = ? AND borough = ? AND entrance = ?;
	`, string(status), id.Name, id.Borough, id.Entrance)
	if err != nil {
		return fmt.Errorf("error updating station status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("station %q (%s): %w", id.Name, id.Entrance, models.ErrNotFound)
	}
	return nil
}

// DistinctLines returns every line label present on the edge set.
func (q *Queries) DistinctLines(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT DISTINCT line FROM edges ORDER BY line;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var lines []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// CreateSegment creates a direct CONNECTS edge on one line.
func (q *Queries) CreateSegment(ctx context.Context, start, end models.StationID, line string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO edges (kind, start_name, start_borough, start_entrance, end_name, end_borough, end_entrance, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, string(models.EdgeConnects), start.Name, start.Borough, start.Entrance, end.Name, end.Borough, end.Entrance, line)
	if err != nil {
		return fmt.Errorf("error inserting segment: %w", err)
	}
	return nil
}

// MergeSegment creates a direct CONNECTS edge unless an identical one
// already exists, the idempotent form used at ingestion.
func (q *Queries) MergeSegment(ctx context.Context, start, end models.StationID, line string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO edges (kind, start_name, start_borough, start_entrance, end_name, end_borough, end_entrance, line)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM edges
			WHERE kind = ? AND line = ?
			  AND start_name = ? AND start_borough = ? AND start_entrance = ?
			  AND end_name = ? AND end_borough = ? AND end_entrance = ?
		);
	`, string(models.EdgeConnects), start.Name, start.Borough, start.Entrance, end.Name, end.Borough, end.Entrance, line,
		string(models.EdgeConnects), line,
		start.Name, start.Borough, start.Entrance, end.Name, end.Borough, end.Entrance)
	if err != nil {
		return fmt.Errorf("error merging segment: %w", err)
	}
	return nil
}

// CreateReroute creates a REROUTES edge carrying the ordered undo log.
func (q *Queries) CreateReroute(ctx context.Context, start, end models.StationID, line string, tokens []models.RerouteToken) error {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO edges (kind, start_name, start_borough, start_entrance, end_name, end_borough, end_entrance, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, string(models.EdgeReroutes), start.Name, start.Borough, start.Entrance, end.Name, end.Borough, end.Entrance, line)
	if err != nil {
		return fmt.Errorf("error inserting reroute: %w", err)
	}
	edgeID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading reroute id: %w", err)
	}
	for i, tok := range tokens {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO edge_tokens (edge_id, position, name, borough, entrance, kind)
			VALUES (?, ?, ?, ?, ?, ?);
		`, edgeID, i, tok.Station.Name, tok.Station.Borough, tok.Station.Entrance, int(tok.Kind))
		if err != nil {
			return fmt.Errorf("error inserting reroute token: %w", err)
		}
	}
	return nil
}

const edgeColumns = `e.id, e.kind, e.start_name, e.start_borough, e.start_entrance, e.end_name, e.end_borough, e.end_entrance, e.line`

func (q *Queries) queryEdges(ctx context.Context, query string, args ...interface{}) ([]models.Edge, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var edges []models.Edge
	for rows.Next() {
		var e models.Edge
		var kind string
		if err := rows.Scan(&e.ID, &kind,
			&e.Start.Name, &e.Start.Borough, &e.Start.Entrance,
			&e.End.Name, &e.End.Borough, &e.End.Entrance, &e.Line); err != nil {
			return nil, err
		}
		e.Kind = models.EdgeKind(kind)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range edges {
		if edges[i].Kind != models.EdgeReroutes {
			continue
		}
		tokens, err := q.edgeTokens(ctx, edges[i].ID)
		if err != nil {
			return nil, err
		}
		edges[i].Tokens = tokens
	}
	return edges, nil
}

func (q *Queries) edgeTokens(ctx context.Context, edgeID int64) ([]models.RerouteToken, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT name, borough, entrance, kind FROM edge_tokens
		WHERE edge_id = ? ORDER BY position;
	`, edgeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var tokens []models.RerouteToken
	for rows.Next() {
		var tok models.RerouteToken
		var kind int
		if err := rows.Scan(&tok.Station.Name, &tok.Station.Borough, &tok.Station.Entrance, &kind); err != nil {
			return nil, err
		}
		tok.Kind = models.TokenKind(kind)
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

// AllEdges lists every edge in the graph.
func (q *Queries) AllEdges(ctx context.Context) ([]models.Edge, error) {
	return q.queryEdges(ctx, `SELECT ` + edgeColumns + ` FROM edges e ORDER BY e.id;`)
}

// EdgesTouching returns every edge, of either kind, that starts or ends at
// the given station.
func (q *Queries) EdgesTouching(ctx context.Context, id models.StationID) ([]models.Edge, error) {
	return q.queryEdges(ctx, `
		SELECT `+edgeColumns+` FROM edges e
		WHERE (e.start_name = ? AND e.start_borough = ? AND e.start_entrance = ?)
		   OR (e.end_name = ? AND e.end_borough = ? AND e.end_entrance = ?)
		ORDER BY e.id;
	`, id.Name, id.Borough, id.Entrance, id.Name, id.Borough, id.Entrance)
}

// EdgesBetween returns edges joining the two stations in either direction.
func (q *Queries) EdgesBetween(ctx context.Context, a, b models.StationID) ([]models.Edge, error) {
	return q.queryEdges(ctx, `
		SELECT `+edgeColumns+` FROM edges e
		WHERE (e.start_name = ? AND e.start_borough = ? AND e.start_entrance = ?
		       AND e.end_name = ? AND e.end_borough = ? AND e.end_entrance = ?)
		   OR (e.start_name = ? AND e.start_borough = ? AND e.start_entrance = ?
		       AND e.end_name = ? AND e.end_borough = ? AND e.end_entrance = ?)
		ORDER BY e.id;
	`, a.Name, a.Borough, a.Entrance, b.Name, b.Borough, b.Entrance,
		b.Name, b.Borough, b.Entrance, a.Name, a.Borough, a.Entrance)
}

// LinesBetween returns the set of line labels joining two adjacent stations.
// A pair may be connected by more than one line (local and express).
func (q *Queries) LinesBetween(ctx context.Context, a, b models.StationID) ([]string, error) {
	edges, err := q.EdgesBetween(ctx, a, b)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(edges))
	var lines []string
	for _, e := range edges {
		if !seen[e.Line] {
			seen[e.Line] = true
			lines = append(lines, e.Line)
		}
	}
	return lines, nil
}

// ReroutesContaining returns every REROUTES edge whose undo log mentions the
// given station, under any token kind.
func (q *Queries) ReroutesContaining(ctx context.Context, id models.StationID) ([]models.Edge, error) {
	return q.queryEdges(ctx, `
		SELECT DISTINCT `+edgeColumns+` FROM edges e
		JOIN edge_tokens t ON t.edge_id = e.id
		WHERE t.name = ? AND t.borough = ? AND t.entrance = ?
		ORDER BY e.id;
	`, id.Name, id.Borough, id.Entrance)
}

// DeleteEdge removes one edge (and its tokens, via cascade).
func (q *Queries) DeleteEdge(ctx context.Context, edgeID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM edges WHERE id = ?;`, edgeID)
	if err != nil {
		return fmt.Errorf("error deleting edge: %w", err)
	}
	return nil
}

// DetachStation deletes every edge touching the station and flips its status
// to OutOfOrder. Callers run this inside a transaction together with the
// reroute creation that replaces the deleted edges.
func (q *Queries) DetachStation(ctx context.Context, id models.StationID) error {
	_, err := q.db.ExecContext(ctx, `
		DELETE FROM edges
		WHERE (start_name = ? AND start_borough = ? AND start_entrance = ?)
		   OR (end_name = ? AND end_borough = ? AND end_entrance = ?);
	`, id.Name, id.Borough, id.Entrance, id.Name, id.Borough, id.Entrance)
	if err != nil {
		return fmt.Errorf("error detaching station: %w", err)
	}
	return q.SetStationStatus(ctx, id, models.StatusOutOfOrder)
}
