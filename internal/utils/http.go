package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// ExtractParam retrieves a named route parameter and removes file extensions
// like ".json".
func ExtractParam(r *http.Request, paramName string) string {
	params := httprouter.ParamsFromContext(r.Context())
	raw := params.ByName(paramName)
	return strings.Split(raw, ".json")[0]
}
