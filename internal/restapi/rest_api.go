package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/omarthenmalai/SubwayScheduler/internal/app"
)

type RestAPI struct {
	*app.Application
}

func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{Application: app}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// Router builds the API routing table. Every endpoint requires a valid API
// key.
func (api *RestAPI) Router() http.Handler {
	router := httprouter.New()

	router.Handler(http.MethodGet, "/api/stations.json", validateAPIKey(api, api.stationsHandler))
	router.Handler(http.MethodGet, "/api/station/:name", validateAPIKey(api, api.stationHandler))
	router.Handler(http.MethodGet, "/api/stations-for-line/:line", validateAPIKey(api, api.stationsForLineHandler))
	router.Handler(http.MethodGet, "/api/lines.json", validateAPIKey(api, api.linesHandler))

	router.Handler(http.MethodPost, "/api/station/:name/outage", validateAPIKey(api, api.outageHandler))
	router.Handler(http.MethodPost, "/api/station/:name/restore", validateAPIKey(api, api.restoreHandler))

	router.Handler(http.MethodGet, "/api/plan.json", validateAPIKey(api, api.planTripHandler))

	router.Handler(http.MethodGet, "/api/schedule-for-line/:line", validateAPIKey(api, api.scheduleForLineHandler))
	router.Handler(http.MethodGet, "/api/delays.json", validateAPIKey(api, api.delaysHandler))
	router.Handler(http.MethodPost, "/api/delays.json", validateAPIKey(api, api.delayHandler))
	router.Handler(http.MethodDelete, "/api/delays.json", validateAPIKey(api, api.removeDelayHandler))

	router.Handler(http.MethodPost, "/api/trips.json", validateAPIKey(api, api.addTripHandler))
	router.Handler(http.MethodGet, "/api/trips-for-user/:id", validateAPIKey(api, api.tripsForUserHandler))

	return NewRequestLoggingMiddleware(api.Logger)(router)
}
