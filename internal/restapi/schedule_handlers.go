package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/utils"
)

// runEntry renders a timetable run with "HH:MM" stop times.
type runEntry struct {
	ID        int64             `json:"id"`
	Line      string            `json:"line"`
	Direction models.Direction  `json:"direction"`
	Stops     []runStopEntry    `json:"stops"`
	Delay     *delayMarkerEntry `json:"delay,omitempty"`
}

type runStopEntry struct {
	Station string `json:"station"`
	Time    string `json:"time"`
}

type delayMarkerEntry struct {
	Start   string `json:"start"`
	Minutes int    `json:"minutes"`
}

func newRunEntry(run models.Run) runEntry {
	entry := runEntry{
		ID:        run.ID,
		Line:      run.Line,
		Direction: run.Direction,
		Stops:     make([]runStopEntry, 0, len(run.Stops)),
	}
	for _, s := range run.Stops {
		entry.Stops = append(entry.Stops, runStopEntry{Station: s.Station, Time: s.Time.String()})
	}
	if run.Delay != nil {
		entry.Delay = &delayMarkerEntry{Start: run.Delay.Start, Minutes: run.Delay.Minutes}
	}
	return entry
}

func newRunEntries(runs []models.Run) []runEntry {
	entries := make([]runEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, newRunEntry(run))
	}
	return entries
}

func (api *RestAPI) scheduleForLineHandler(w http.ResponseWriter, r *http.Request) {
	line := utils.ExtractParam(r, "line")
	if err := utils.ValidateName(line); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"line": {err.Error()}})
		return
	}

	ctx := r.Context()
	var runs []models.Run
	var err error
	if r.URL.Query().Get("direction") != "" {
		direction, fieldErrors := utils.ParseDirectionParam(r.URL.Query(), "direction", nil)
		if len(fieldErrors) > 0 {
			api.validationErrorResponse(w, r, fieldErrors)
			return
		}
		runs, err = api.Schedule.SchedulesByLineDirection(ctx, line, direction)
	} else {
		runs, err = api.Schedule.SchedulesByLine(ctx, line)
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(newRunEntries(runs)))
}

// delayRequest addresses a run by one of its scheduled calls.
type delayRequest struct {
	Line      string `json:"line"`
	Direction string `json:"direction"`
	Station   string `json:"station"`
	Time      string `json:"time"`
	Minutes   int    `json:"minutes"`
}

func (api *RestAPI) decodeDelayRequest(w http.ResponseWriter, r *http.Request, requireMinutes bool) (delayRequest, models.Direction, models.Clock, bool) {
	var req delayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"Invalid JSON request body."}})
		return delayRequest{}, "", 0, false
	}

	fieldErrors := make(map[string][]string)
	if err := utils.ValidateName(req.Line); err != nil {
		fieldErrors["line"] = append(fieldErrors["line"], err.Error())
	}
	if err := utils.ValidateName(req.Station); err != nil {
		fieldErrors["station"] = append(fieldErrors["station"], err.Error())
	}
	var direction models.Direction
	switch req.Direction {
	case string(models.DirectionNorth):
		direction = models.DirectionNorth
	case string(models.DirectionSouth):
		direction = models.DirectionSouth
	default:
		fieldErrors["direction"] = append(fieldErrors["direction"], `Invalid field value for field "direction".`)
	}
	at, err := models.ParseClock(req.Time)
	if err != nil {
		fieldErrors["time"] = append(fieldErrors["time"], `Invalid field value for field "time".`)
	}
	if requireMinutes && req.Minutes <= 0 {
		fieldErrors["minutes"] = append(fieldErrors["minutes"], `Invalid field value for field "minutes".`)
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return delayRequest{}, "", 0, false
	}
	return req, direction, at, true
}

func (api *RestAPI) delayHandler(w http.ResponseWriter, r *http.Request) {
	req, direction, at, ok := api.decodeDelayRequest(w, r, true)
	if !ok {
		return
	}

	run, err := api.Schedule.Delay(r.Context(), req.Line, direction, req.Station, at, req.Minutes)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newRunEntry(run)))
}

func (api *RestAPI) removeDelayHandler(w http.ResponseWriter, r *http.Request) {
	req, direction, at, ok := api.decodeDelayRequest(w, r, false)
	if !ok {
		return
	}

	run, err := api.Schedule.RemoveDelay(r.Context(), req.Line, direction, req.Station, at)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newRunEntry(run)))
}

// delayListingEntry is one row of the tabular delay report.
type delayListingEntry struct {
	Line      string           `json:"line"`
	Direction models.Direction `json:"direction"`
	Earliest  string           `json:"earliest"`
	Start     string           `json:"start"`
	Minutes   int              `json:"minutes"`
}

func (api *RestAPI) delaysHandler(w http.ResponseWriter, r *http.Request) {
	listings, err := api.Schedule.DelayListings(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	entries := make([]delayListingEntry, 0, len(listings))
	for _, l := range listings {
		entries = append(entries, delayListingEntry{
			Line:      l.Line,
			Direction: l.Direction,
			Earliest:  l.Earliest.String(),
			Start:     l.Start,
			Minutes:   l.Minutes,
		})
	}

	api.sendResponse(w, r, models.NewListResponse(entries))
}
