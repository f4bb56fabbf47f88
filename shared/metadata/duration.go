package metadata

import (
	"regexp"
	"strconv"
)

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDurationSeconds converts an ISO 8601 duration such as "PT1M30S" or
// "P1DT2H" to seconds. Unparseable input yields 0.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := isoDurationRE.FindStringSubmatch(duration)
	if matches == nil {
		return 0
	}

	units := []int{86400, 3600, 60, 1}
	total := 0
	for i, unit := range units {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
