package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jamespfennell/gtfs"

	"github.com/omarthenmalai/SubwayScheduler/internal/logging"
	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/subwaydb"
)

// Importer populates the graph and timetable stores from a GTFS static
// feed. It replaces whatever manual seeding the deployment had; re-running
// it is safe because station writes are upserts and the timetable is
// replaced wholesale.
type Importer struct {
	client *subwaydb.Client
	logger *slog.Logger
}

func NewImporter(client *subwaydb.Client, logger *slog.Logger) *Importer {
	return &Importer{client: client, logger: logger}
}

// ImportFromFile loads a GTFS static zip from the local filesystem.
func (im *Importer) ImportFromFile(ctx context.Context, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening local GTFS file: %w", err)
	}
	defer logging.HandleDeferredError(&err, f.Close, im.logger, "close GTFS file")

	b, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("error reading local GTFS file: %w", err)
	}
	return im.importBytes(ctx, b)
}

// DownloadAndStore fetches a GTFS static zip over HTTP and imports it.
func (im *Importer) DownloadAndStore(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error building GTFS request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, im.logger, "gtfs download body")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading GTFS data: status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading GTFS data: %w", err)
	}
	return im.importBytes(ctx, b)
}

func (im *Importer) importBytes(ctx context.Context, b []byte) error {
	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return im.ImportStatic(ctx, staticData)
}

// ImportStatic writes parsed GTFS data into the stores: stations from served
// stops, segments from consecutive stop pairs, and one timetable run per
// scheduled trip.
func (im *Importer) ImportStatic(ctx context.Context, staticData *gtfs.Static) error {
	stations := collectStations(staticData)
	segments := collectSegments(staticData)
	runs := collectRuns(staticData)

	err := im.client.Transact(ctx, func(q *subwaydb.Queries) error {
		for _, s := range stations {
			if err := q.MergeStation(ctx, s); err != nil {
				return err
			}
		}
		for _, seg := range segments {
			if err := q.MergeSegment(ctx, seg.a, seg.b, seg.line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error importing graph: %w", err)
	}

	err = im.client.Transact(ctx, func(q *subwaydb.Queries) error {
		return q.DeleteAllRuns(ctx)
	})
	if err != nil {
		return fmt.Errorf("error clearing timetable: %w", err)
	}
	if err := im.client.BulkInsertRuns(ctx, runs); err != nil {
		return fmt.Errorf("error importing timetable: %w", err)
	}

	logging.LogOperation(im.logger, "gtfs import complete",
		slog.Int("stations", len(stations)),
		slog.Int("segments", len(segments)),
		slog.Int("runs", len(runs)))
	return nil
}

// lineLabel picks the rider-facing label for a route.
func lineLabel(route *gtfs.Route) string {
	if route == nil {
		return ""
	}
	if route.ShortName != "" {
		return route.ShortName
	}
	return route.Id
}

// stationID derives the identity triple from a GTFS stop. The entrance slot
// takes the stop code when the feed publishes one, otherwise the stop id;
// either way entrances of the same station share a display name.
func stationID(stop *gtfs.Stop) models.StationID {
	entrance := stop.Code
	if entrance == "" {
		entrance = stop.Id
	}
	return models.StationID{Name: stop.Name, Borough: stop.Description, Entrance: entrance}
}

func tripDirection(t gtfs.ScheduledTrip) models.Direction {
	if int64(t.DirectionId) == 1 {
		return models.DirectionSouth
	}
	return models.DirectionNorth
}

func collectStations(staticData *gtfs.Static) []models.Station {
	byID := make(map[models.StationID]*models.Station)
	var order []models.StationID

	for _, t := range staticData.Trips {
		line := lineLabel(t.Route)
		if line == "" {
			continue
		}
		for _, st := range t.StopTimes {
			if st.Stop == nil {
				continue
			}
			id := stationID(st.Stop)
			s, ok := byID[id]
			if !ok {
				s = &models.Station{
					Name:     id.Name,
					Borough:  id.Borough,
					Entrance: id.Entrance,
					Status:   models.StatusNormal,
				}
				if st.Stop.Latitude != nil {
					s.Latitude = *st.Stop.Latitude
				}
				if st.Stop.Longitude != nil {
					s.Longitude = *st.Stop.Longitude
				}
				byID[id] = s
				order = append(order, id)
			}
			if !s.HasLine(line) {
				s.Lines = append(s.Lines, line)
			}
		}
	}

	stations := make([]models.Station, 0, len(order))
	for _, id := range order {
		stations = append(stations, *byID[id])
	}
	return stations
}

type segment struct {
	a, b models.StationID
	line string
}

// collectSegments walks consecutive stop pairs of every trip and keeps each
// (pair, line) once. Pairs are canonicalized because traversal is
// undirected; the opposite-direction trip contributes no new edge.
func collectSegments(staticData *gtfs.Static) []segment {
	seen := make(map[string]bool)
	var segments []segment

	for _, t := range staticData.Trips {
		line := lineLabel(t.Route)
		if line == "" {
			continue
		}
		for i := 0; i+1 < len(t.StopTimes); i++ {
			if t.StopTimes[i].Stop == nil || t.StopTimes[i+1].Stop == nil {
				continue
			}
			a, b := stationID(t.StopTimes[i].Stop), stationID(t.StopTimes[i+1].Stop)
			if a == b {
				continue
			}
			ca, cb := a, b
			if canonicalKey(cb) < canonicalKey(ca) {
				ca, cb = cb, ca
			}
			key := canonicalKey(ca) + "|" + canonicalKey(cb) + "|" + line
			if seen[key] {
				continue
			}
			seen[key] = true
			segments = append(segments, segment{a: ca, b: cb, line: line})
		}
	}
	return segments
}

func canonicalKey(id models.StationID) string {
	return id.Name + "\x00" + id.Borough + "\x00" + id.Entrance
}

// collectRuns converts each scheduled trip into a timetable run. Raw GTFS
// times on overnight trips can step numerically backwards at midnight; the
// fixup pushes such stops onto the next day so run times stay monotonic.
func collectRuns(staticData *gtfs.Static) []models.Run {
	var runs []models.Run
	for _, t := range staticData.Trips {
		line := lineLabel(t.Route)
		if line == "" || len(t.StopTimes) < 2 {
			continue
		}

		run := models.Run{Line: line, Direction: tripDirection(t)}
		prev := models.Clock(-1)
		seen := make(map[string]bool)
		for _, st := range t.StopTimes {
			if st.Stop == nil || seen[st.Stop.Name] {
				continue
			}
			seen[st.Stop.Name] = true
			c := models.Clock(st.DepartureTime / time.Minute)
			for c < prev {
				c = c.NextDay()
			}
			prev = c
			run.Stops = append(run.Stops, models.RunStop{Station: st.Stop.Name, Time: c})
		}
		if len(run.Stops) < 2 {
			continue
		}
		runs = append(runs, run)
	}
	return runs
}
