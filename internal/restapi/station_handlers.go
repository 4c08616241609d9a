package restapi

import (
	"net/http"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/utils"
)

func (api *RestAPI) stationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stations []models.Station
	var err error
	if r.URL.Query().Get("active") == "true" {
		stations, err = api.Client.Queries.ActiveStations(ctx)
	} else {
		stations, err = api.Client.Queries.AllStations(ctx)
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if stations == nil {
		stations = []models.Station{}
	}

	api.sendResponse(w, r, models.NewListResponse(stations))
}

func (api *RestAPI) stationHandler(w http.ResponseWriter, r *http.Request) {
	name := utils.ExtractParam(r, "name")
	if err := utils.ValidateName(name); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	station, err := api.Client.Queries.GetStationByName(r.Context(), name)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(station))
}

func (api *RestAPI) stationsForLineHandler(w http.ResponseWriter, r *http.Request) {
	line := utils.ExtractParam(r, "line")
	if err := utils.ValidateName(line); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"line": {err.Error()}})
		return
	}

	stations, err := api.Client.Queries.StationsByLine(r.Context(), line)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if stations == nil {
		stations = []models.Station{}
	}

	api.sendResponse(w, r, models.NewListResponse(stations))
}

func (api *RestAPI) linesHandler(w http.ResponseWriter, r *http.Request) {
	lines, err := api.Client.Queries.DistinctLines(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}

	api.sendResponse(w, r, models.NewListResponse(lines))
}
