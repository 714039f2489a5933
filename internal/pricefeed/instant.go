package pricefeed

import (
	"fmt"
	"strings"
	"time"
)

// ParseInstant accepts RFC 3339 or a bare YYYY-MM-DD date. A bare date maps
// to 12:00 UTC so that it lands on the same calendar day in every market
// timezone between UTC-12 and UTC+11. Empty input yields now.
func ParseInstant(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return d.Add(12 * time.Hour), nil
}
