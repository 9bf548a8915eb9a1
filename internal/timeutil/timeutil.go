package timeutil

import (
	"fmt"
	"time"
)

var defaultLocation = time.UTC

// DisplayLayout is used when echoing a resolved time back to the user.
// Parse understands it, so a displayed time can be read back.
const DisplayLayout = "Monday, January 2, 2006 at 3:04 PM MST"

// ResolveLocation returns the location for timezone with UTC fallback.
// The bool is true when the fallback was used.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, true
	}
	return loc, false
}

// ParseDateTime parses a datetime in either RFC3339 (with explicit offset) or local layouts in loc.
func ParseDateTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("time value is required")
	}

	// If timezone/offset exists, preserve it.
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	if loc == nil {
		loc = defaultLocation
	}

	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		DisplayLayout,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time: %s", value)
}

// FormatForDisplay renders t for confirmation prompts
func FormatForDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}
