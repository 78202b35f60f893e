package utils

import (
	"fmt"
	"regexp"
	"strings"

	"indoor-nav-server/models"
)

var waypointPattern = regexp.MustCompile(`^([AB])([1-9][0-9]*)$`)

// ParseWaypointID normalizes a raw code from a QR decode or a speech
// transcript into a waypoint identifier. Speech recognizers tend to insert
// spaces ("a 7") and lowercase the series tag, so whitespace is stripped and
// the result uppercased before validation.
func ParseWaypointID(input string) (models.WaypointID, error) {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(input), ""))
	if !waypointPattern.MatchString(cleaned) {
		return "", fmt.Errorf("invalid waypoint code %q", input)
	}
	return models.WaypointID(cleaned), nil
}
