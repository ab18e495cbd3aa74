package bot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var hourPattern = regexp.MustCompile(`^\d+$`)

// parseHours reads a comma separated list of non-negative integers. Spaces are
// ignored and entries that are not numbers are dropped.
func parseHours(payload string) []int {
	input := strings.Join(strings.Fields(payload), "")
	var hours []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if !hourPattern.MatchString(part) {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		hours = append(hours, h)
	}
	return hours
}

func parseInts(args []string, n int) ([]int, bool) {
	if len(args) < n {
		return nil, false
	}
	values := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

func parseBookingHours(args []string) (int, int, bool) {
	values, ok := parseInts(args, 2)
	if !ok {
		return 0, 0, false
	}
	start, end := values[0], values[1]
	if start < 0 || start > 23 || end < 1 || end > 23 || start >= end {
		return 0, 0, false
	}
	return start, end, true
}

func parseMaxHours(args []string) (int, int, bool) {
	values, ok := parseInts(args, 2)
	if !ok || values[0] < 0 || values[1] < 0 {
		return 0, 0, false
	}
	return values[0], values[1], true
}

func parseWeeklyHours(args []string) (int, bool) {
	values, ok := parseInts(args, 1)
	if !ok || values[0] < 0 {
		return 0, false
	}
	return values[0], true
}

func parseTimezone(args []string) (string, bool) {
	if len(args) < 1 || args[0] == "" {
		return "", false
	}
	if _, err := time.LoadLocation(args[0]); err != nil {
		return "", false
	}
	return args[0], true
}

func displayName(firstName, username string) string {
	if username == "" {
		return firstName
	}
	return firstName + " (" + username + ")"
}
