package session

import (
	"regexp"
	"strconv"
	"time"
)

// DefaultRestSeconds is used when a rest string carries no parseable number.
const DefaultRestSeconds = 60

var restNumber = regexp.MustCompile(`\d+`)

// ParseRestSeconds extracts the first integer from a human rest string like
// "60 sec" or "90s". Malformed or empty strings default to 60 seconds.
func ParseRestSeconds(s string) int {
	m := restNumber.FindString(s)
	if m == "" {
		return DefaultRestSeconds
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return DefaultRestSeconds
	}
	return n
}

// RestDuration is ParseRestSeconds as a time.Duration.
func RestDuration(s string) time.Duration {
	return time.Duration(ParseRestSeconds(s)) * time.Second
}
