package model

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"20060102T1504",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate accepts the timestamp shapes seen in observation exports and
// weather feeds.
func ParseDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil date")
		}
		return *t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return time.Time{}, fmt.Errorf("unsupported date type %T", v)
}
