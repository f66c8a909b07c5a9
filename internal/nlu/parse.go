package nlu

import (
	"strings"
	"time"
)

// Slot layouts tolerated from the extractor. Voice transcription produces a
// wide range of shapes, so parsing tries each in order.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04",
	"2 Jan 2006 15:04",
	"Jan 2 2006 15:04",
	"January 2 2006 15:04",
	"2 Jan 2006 3:04pm",
	"Jan 2 2006 3:04pm",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2 2006",
	"20060102",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04pm",
	"3:04 pm",
	"3pm",
	"3 pm",
	"1504",
}

// ParseSlotStart resolves a candidate slot start from the extracted fields,
// in the given location. It prefers the combined DateTime field, then falls
// back to Date + Time. Returns false when no complete candidate is present.
func ParseSlotStart(f Fields, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}

	if dt := strings.TrimSpace(f.DateTime); dt != "" {
		if t, ok := parseDateTime(dt, loc); ok {
			return t, true
		}
	}

	d := strings.TrimSpace(f.Date)
	tm := strings.TrimSpace(f.Time)
	if d == "" || tm == "" {
		return time.Time{}, false
	}

	day, ok := parseDate(d, loc)
	if !ok {
		return time.Time{}, false
	}
	clock, ok := parseClock(tm)
	if !ok {
		return time.Time{}, false
	}

	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}

// HasPartialSlot reports whether the turn carried a date or a time but not
// enough for a full candidate, so the prompt can ask for the missing half.
func HasPartialSlot(f Fields) (hasDate, hasTime bool) {
	if strings.TrimSpace(f.DateTime) != "" {
		return true, true
	}
	if d := strings.TrimSpace(f.Date); d != "" {
		if _, ok := parseDate(d, time.UTC); ok {
			hasDate = true
		}
	}
	if tm := strings.TrimSpace(f.Time); tm != "" {
		if _, ok := parseClock(tm); ok {
			hasTime = true
		}
	}
	return hasDate, hasTime
}

func parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = normalizeMeridiem(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (time.Time, bool) {
	s = normalizeMeridiem(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeMeridiem lowercases AM/PM markers so a single set of layouts
// covers "10AM", "10 Am" and "10am".
func normalizeMeridiem(s string) string {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		return s[:len(s)-2] + strings.ToLower(s[len(s)-2:])
	}
	return s
}
