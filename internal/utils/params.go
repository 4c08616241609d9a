package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/omarthenmalai/SubwayScheduler/internal/models"
)

// ParseClockParam retrieves an "HH:MM" value from the query parameters. A
// missing or invalid value records a field error and returns zero.
func ParseClockParam(params url.Values, key string, fieldErrors map[string][]string) (models.Clock, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	val := params.Get(key)
	if val == "" {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Missing required field %q.", key))
		return 0, fieldErrors
	}
	c, err := models.ParseClock(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return c, fieldErrors
}

// ParseDirectionParam retrieves a service direction from the query
// parameters. Accepts the full label or its first letter, case-insensitive.
func ParseDirectionParam(params url.Values, key string, fieldErrors map[string][]string) (models.Direction, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	switch strings.ToLower(params.Get(key)) {
	case "northbound", "north", "n":
		return models.DirectionNorth, fieldErrors
	case "southbound", "south", "s":
		return models.DirectionSouth, fieldErrors
	default:
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return "", fieldErrors
	}
}

// ParseIntParam retrieves an integer value from the query parameters. A
// missing or invalid value records a field error and returns zero.
func ParseIntParam(params url.Values, key string, fieldErrors map[string][]string) (int, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	val := params.Get(key)
	if val == "" {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Missing required field %q.", key))
		return 0, fieldErrors
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
	}
	return n, fieldErrors
}
