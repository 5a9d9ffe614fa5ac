// Package parser extracts structured reservation details from a constrained
// natural-language sentence. Two languages (Russian and English) and two
// date-range grammars per language are supported. A non-matching input is a
// normal outcome, not an error: callers re-prompt the user.
package parser

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"parkbot/internal/models"
)

// Reservation is the parse result: all fields non-empty, Start <= End.
type Reservation struct {
	Name      string
	Surname   string
	VehicleID string
	Start     time.Time
	End       time.Time
}

// Closed month table for both languages. An unrecognized month name is a
// hard parse failure (the upstream behavior of defaulting to February was a
// latent bug and is not kept).
var months = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,

	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Four grammars, tried in this fixed order, first match wins.
var (
	// "с 20 марта 2026 по 21 апреля 2027"
	ruFull = regexp.MustCompile(`с\s+(\d{1,2})\s+(\S+)\s+(\d{4})\s+по\s+(\d{1,2})\s+(\S+)\s+(\d{4})`)
	// "с 5 по 12 июля 2026"
	ruShort = regexp.MustCompile(`с\s+(\d{1,2})\s+по\s+(\d{1,2})\s+(\S+)\s+(\d{4})`)
	// "from 20 march 2026 to 21 april 2027"
	enFull = regexp.MustCompile(`from\s+(\d{1,2})\s+(\S+)\s+(\d{4})\s+to\s+(\d{1,2})\s+(\S+)\s+(\d{4})`)
	// "from 5 march to 12 march 2026"
	enShort = regexp.MustCompile(`from\s+(\d{1,2})\s+(\S+)\s+to\s+(\d{1,2})\s+(\S+)\s+(\d{4})`)

	fields = regexp.MustCompile(`(?i)reserve\s+(\S+)\s+(\S+)\s+([A-Za-z0-9-]+)`)
)

// dateMarkers gate grammar matching: without one of these the message
// cannot carry a date range.
var dateMarkers = []string{" с ", " from ", " от "}

// Parse extracts reservation details from a message of the form
// "reserve <Name> <Surname> <VehicleID> <DateRange>". Returns nil when the
// input does not match any supported grammar.
func Parse(text string) *Reservation {
	text = strings.TrimSpace(text)
	lowered := strings.ToLower(text)

	if !strings.HasPrefix(lowered, "reserve") {
		return nil
	}

	hasMarker := false
	for _, m := range dateMarkers {
		if strings.Contains(lowered, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return nil
	}

	start, end, ok := parseDates(lowered)
	if !ok {
		return nil
	}
	if end.Before(start) {
		return nil
	}

	m := fields.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	name := capitalize(m[1])
	surname := capitalize(m[2])
	vehicle := strings.ToUpper(m[3])
	if name == "" || surname == "" || vehicle == "" {
		return nil
	}

	return &Reservation{
		Name:      name,
		Surname:   surname,
		VehicleID: vehicle,
		Start:     start,
		End:       end,
	}
}

func parseDates(lowered string) (time.Time, time.Time, bool) {
	if m := ruFull.FindStringSubmatch(lowered); m != nil {
		return fullRange(m[1], m[2], m[3], m[4], m[5], m[6])
	}
	if m := ruShort.FindStringSubmatch(lowered); m != nil {
		return fullRange(m[1], m[3], m[4], m[2], m[3], m[4])
	}
	if m := enFull.FindStringSubmatch(lowered); m != nil {
		return fullRange(m[1], m[2], m[3], m[4], m[5], m[6])
	}
	if m := enShort.FindStringSubmatch(lowered); m != nil {
		return fullRange(m[1], m[2], m[5], m[3], m[4], m[5])
	}
	return time.Time{}, time.Time{}, false
}

func fullRange(d1, m1, y1, d2, m2, y2 string) (time.Time, time.Time, bool) {
	start, ok := makeDate(d1, m1, y1, models.PeriodStartHour)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := makeDate(d2, m2, y2, models.PeriodEndHour)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func makeDate(dayStr, monthStr, yearStr string, hour int) (time.Time, bool) {
	month, ok := months[monthStr]
	if !ok {
		return time.Time{}, false
	}
	day := atoi(dayStr)
	year := atoi(yearStr)
	t := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow ("32 march" becomes April 1); treat
	// that as a malformed date.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
