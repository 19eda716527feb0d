package domain

import (
	"fmt"
	"time"
)

// timeLayouts are the accepted warehouse timestamp formats. RFC3339 covers
// the canonical form with a trailing "Z" UTC marker; the remaining layouts
// cover zone-less exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a warehouse timestamp string. Zone-less values are taken
// as UTC.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}
