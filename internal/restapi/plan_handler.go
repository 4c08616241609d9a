package restapi

import (
	"net/http"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/utils"
)

// planEntry renders an itinerary with schedule times in "HH:MM" form.
type planEntry struct {
	Legs      []planLeg `json:"legs"`
	Duration  int       `json:"durationMinutes"`
	Transfers int       `json:"transfers"`
}

type planLeg struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Line    string `json:"line"`
	Departs string `json:"departs"`
	Arrives string `json:"arrives"`
}

func newPlanEntry(it models.Itinerary) planEntry {
	entry := planEntry{
		Legs:      make([]planLeg, 0, len(it.Legs)),
		Duration:  it.Duration(),
		Transfers: it.Transfers(),
	}
	for _, leg := range it.Legs {
		entry.Legs = append(entry.Legs, planLeg{
			From:    leg.From,
			To:      leg.To,
			Line:    leg.Line,
			Departs: leg.Departs.String(),
			Arrives: leg.Arrives.String(),
		})
	}
	return entry
}

func (api *RestAPI) planTripHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, stop := query.Get("start"), query.Get("stop")

	fieldErrors := make(map[string][]string)
	for key, val := range map[string]string{"start": start, "stop": stop} {
		if err := utils.ValidateName(val); err != nil {
			fieldErrors[key] = append(fieldErrors[key], err.Error())
		}
	}
	departAt, fieldErrors := utils.ParseClockParam(query, "at", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	from, err := api.Client.Queries.GetStationByName(ctx, start)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}
	to, err := api.Client.Queries.GetStationByName(ctx, stop)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	itinerary, err := api.Resolver.PlanTrip(ctx, from.ID(), to.ID(), departAt)
	if err != nil {
		api.domainErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newPlanEntry(itinerary)))
}
