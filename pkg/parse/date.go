package parse

import (
	"fmt"
	"strings"
	"time"
)

// Catalogs use W3C date-time profile of ISO 8601 with any precision, sometimes with missing time zone.
var dateFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func Date(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, format := range dateFormats {
		if date, err := time.Parse(format, value); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date: %q", value)
}

// OptionalDate parses an optional date, ignoring empty and unparsable values.
func OptionalDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	date, err := Date(value)
	if err != nil {
		return time.Time{}
	}

	return date
}
