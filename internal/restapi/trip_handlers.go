package restapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
	"github.com/omarthenmalai/SubwayScheduler/internal/utils"
)

type tripRequest struct {
	UserID  int64  `json:"user_id"`
	Start   string `json:"start"`
	Stop    string `json:"stop"`
	Minutes int    `json:"minutes"`
}

func (api *RestAPI) addTripHandler(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"Invalid JSON request body."}})
		return
	}

	fieldErrors := make(map[string][]string)
	if req.UserID <= 0 {
		fieldErrors["user_id"] = append(fieldErrors["user_id"], `Invalid field value for field "user_id".`)
	}
	if err := utils.ValidateName(req.Start); err != nil {
		fieldErrors["start"] = append(fieldErrors["start"], err.Error())
	}
	if err := utils.ValidateName(req.Stop); err != nil {
		fieldErrors["stop"] = append(fieldErrors["stop"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	trip, err := api.Client.Queries.AddTrip(r.Context(), models.TripLog{
		UserID:  req.UserID,
		Start:   req.Start,
		Stop:    req.Stop,
		Minutes: req.Minutes,
	})
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(trip))
}

func (api *RestAPI) tripsForUserHandler(w http.ResponseWriter, r *http.Request) {
	raw := utils.ExtractParam(r, "id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		api.validationErrorResponse(w, r, map[string][]string{"id": {`Invalid field value for field "id".`}})
		return
	}

	trips, err := api.Client.Queries.TripsByUser(r.Context(), userID)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if trips == nil {
		trips = []models.TripLog{}
	}

	api.sendResponse(w, r, models.NewListResponse(trips))
}
