package restapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// invalidAPIKeyResponse sends a 401 Unauthorized response with the required
// format for invalid API key errors
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.Logger.Error("internal server error", "method", r.Method, "uri", r.URL.RequestURI(), "error", err)
	api.errorResponse(w, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) errorResponse(w http.ResponseWriter, status int, text string) {
	response := struct {
		Code        int    `json:"code"`
		CurrentTime int64  `json:"currentTime"`
		Text        string `json:"text"`
		Version     int    `json:"version"`
	}{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     1,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode error response", "error", err)
	}
}

// validationErrorResponse sends a 400 Bad Request response with
// field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// domainErrorResponse maps the domain failure taxonomy onto HTTP statuses.
func (api *RestAPI) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		api.errorResponse(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrNoPath):
		api.errorResponse(w, http.StatusNotFound, "no route available")
	case errors.Is(err, models.ErrConflict):
		api.errorResponse(w, http.StatusConflict, "conflicting update, retry")
	case errors.Is(err, models.ErrNoDelay):
		api.errorResponse(w, http.StatusConflict, "run has no delay")
	default:
		api.serverErrorResponse(w, r, err)
	}
}
