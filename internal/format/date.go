package format

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// NotAvailable is shown when a date is absent.
	NotAvailable = "N/A"
	// InvalidDate is shown when a date cannot be parsed.
	InvalidDate = "Invalid Date"

	layoutDateOnly = "Jan 2, 2006"
	layoutDateTime = "Jan 2, 2006, 3:04 PM"
	layoutTimeOnly = "3:04 PM"
	layoutLongDate = "Monday, January 2, 2006"
)

// Manila is the hotel's time zone.
var Manila = loadManila()

var backendLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errUnparsable = errors.New("format: unparsable date")

func loadManila() *time.Location {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		return time.FixedZone("PST", 8*60*60)
	}
	return loc
}

// ParseDate parses the date layouts used by the backend. Values without an
// offset are read as Manila local time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errUnparsable
	}
	for _, layout := range backendLayouts {
		if t, err := time.ParseInLocation(layout, s, Manila); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnparsable
}

// CalendarDate truncates t to midnight of its Manila calendar day.
func CalendarDate(t time.Time) time.Time {
	local := t.In(Manila)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Manila)
}

// DateOnly renders "Jul 1, 2025".
func DateOnly(v any) string { return render(v, layoutDateOnly) }

// DateTime renders "Jul 1, 2025, 2:00 PM".
func DateTime(v any) string { return render(v, layoutDateTime) }

// TimeOnly renders "2:00 PM".
func TimeOnly(v any) string { return render(v, layoutTimeOnly) }

// LongDate renders "Tuesday, July 1, 2025".
func LongDate(v any) string { return render(v, layoutLongDate) }

func render(v any, layout string) string {
	var t time.Time
	switch d := v.(type) {
	case nil:
		return NotAvailable
	case time.Time:
		if d.IsZero() {
			return NotAvailable
		}
		t = d
	case *time.Time:
		if d == nil || d.IsZero() {
			return NotAvailable
		}
		t = *d
	case string:
		if strings.TrimSpace(d) == "" {
			return NotAvailable
		}
		parsed, err := ParseDate(d)
		if err != nil {
			return InvalidDate
		}
		t = parsed
	case *string:
		if d == nil {
			return NotAvailable
		}
		return render(*d, layout)
	default:
		return InvalidDate
	}
	return t.In(Manila).Format(layout)
}
