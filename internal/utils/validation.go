package utils

import (
	"errors"
	"regexp"
)

// Station names carry spaces, hyphens, slashes, and apostrophes
// ("Flushing-Main St", "B'way-Lafayette"); only markup and comment
// sequences are rejected.
var dangerousPattern = regexp.MustCompile(`[<>]|--|\/\*|\*\/`)

// ValidateName validates a station or line name from a request path.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if dangerousPattern.MatchString(name) {
		return errors.New("name contains invalid characters")
	}
	return nil
}
