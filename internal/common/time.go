// Package common holds small helpers shared by the bimio client packages.
package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expired is what TimeLeft returns for a moment in the past.
const Expired = "expired"

var ErrBadTimestamp = errors.New("unrecognized timestamp")

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	// Date.prototype.toString()
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// ParseTimestamp understands the expiry formats the auth server has been
// seen to send: ISO-8601 variants, HTTP dates, JavaScript date strings and
// epoch milliseconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	// drop a trailing zone name such as " (Korean Standard Time)"
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// TimeLeft renders the time between now and until the way bimio prints it:
// the largest whole unit of days, hours, minutes or seconds, or Expired.
func TimeLeft(until, now time.Time) string {
	secs := int64(until.Sub(now) / time.Second)
	if until.Before(now) {
		return Expired
	}

	if days := secs / (3600 * 24); days > 0 {
		return fmt.Sprintf("%d days", days)
	}
	if hours := secs / 3600; hours > 0 {
		return fmt.Sprintf("%d hours", hours)
	}
	if mins := (secs % 3600) / 60; mins > 0 {
		return fmt.Sprintf("%d minutes", mins)
	}
	return fmt.Sprintf("%d seconds", secs%60)
}
