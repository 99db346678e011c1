package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationRegex = regexp.MustCompile(`^(\d+)(ms|s|m|h)$`)

// ParseDurationString converts strings like "500ms", "10s", "5m" or "1h" into
// time.Duration. Compound forms such as "1m30s" fall through to time.ParseDuration.
func ParseDurationString(durationStr string) (time.Duration, error) {
	durationStr = strings.ToLower(strings.TrimSpace(durationStr))
	if durationStr == "" || strings.TrimLeft(durationStr, "0") == "" {
		return 0, nil
	}

	matches := durationRegex.FindStringSubmatch(durationStr)
	if len(matches) != 3 {
		d, err := time.ParseDuration(durationStr)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid duration string format: %s. Use '500ms', '10s', '5m', '1h'", durationStr)
		}
		return d, nil
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration numeric value: %s", matches[1])
	}

	var durationUnit time.Duration
	switch matches[2] {
	case "ms":
		durationUnit = time.Millisecond
	case "s":
		durationUnit = time.Second
	case "m":
		durationUnit = time.Minute
	case "h":
		durationUnit = time.Hour
	}

	if value > math.MaxInt64/int64(durationUnit) {
		return 0, fmt.Errorf("duration out of range: %s", durationStr)
	}
	return time.Duration(value) * durationUnit, nil
}
