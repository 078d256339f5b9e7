package handler

import (
	"regexp"
	"strconv"
)

// weekMarker matches digits immediately followed by the localized week
// marker, e.g. "1주차", "[6기] 3주차 출석". The first match wins.
var weekMarker = regexp.MustCompile(`(\d+)주차`)

// parseWeek extracts a week number from a thread or chat name. Returns
// (0, false) when the name carries no week marker or the number is out of
// range.
func parseWeek(name string) (int, bool) {
	m := weekMarker.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	week, err := strconv.Atoi(m[1])
	if err != nil || week < 1 {
		return 0, false
	}
	return week, true
}
