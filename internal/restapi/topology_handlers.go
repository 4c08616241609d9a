package restapi

import (
	"net/http"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/topology"
	"github.com/omarthenmalai/SubwayScheduler/internal/utils"
)

// outageEntry is the response body for outage and restore calls. Warnings
// surface topology inconsistencies the engine degraded around.
type outageEntry struct {
	Station  models.StationID `json:"station"`
	Status   string           `json:"status"`
	Warnings []string         `json:"warnings,omitempty"`
}

func newOutageEntry(result topology.Result, status models.StationStatus) outageEntry {
	entry := outageEntry{Station: result.Station, Status: string(status)}
	for _, warning := range result.Warnings {
		entry.Warnings = append(entry.Warnings, warning.String())
	}
	return entry
}

// resolveStationID turns the path name plus optional borough and entrance
// query parameters into an identity triple. Without the query parameters the
// first entrance of the named station is used.
func (api *RestAPI) resolveStationID(r *http.Request, name string) (models.StationID, error) {
	query := r.URL.Query()
	borough, entrance := query.Get("borough"), query.Get("entrance")
	if borough != "" && entrance != "" {
		return models.StationID{Name: name, Borough: borough, Entrance: entrance}, nil
	}
	station, err := api.Client.Queries.GetStationByName(r.Context(), name)
	if err != nil {
		return models.StationID{}, err
	}
	return station.ID(), nil
}

func (api *RestAPI) outageHandler(w http.ResponseWriter, r *http.Request) {
	name := utils.ExtractParam(r, "name")
	if err := utils.ValidateName(name); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	id, err := api.resolveStationID(r, name)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	result, err := api.Topology.SetOutOfOrder(r.Context(), id)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newOutageEntry(result, models.StatusOutOfOrder)))
}

func (api *RestAPI) restoreHandler(w http.ResponseWriter, r *http.Request) {
	name := utils.ExtractParam(r, "name")
	if err := utils.ValidateName(name); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	id, err := api.resolveStationID(r, name)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	result, err := api.Topology.SetNormal(r.Context(), id)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newOutageEntry(result, models.StatusNormal)))
}
