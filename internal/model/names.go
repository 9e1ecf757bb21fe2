package model

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WeekdayNames is the canonical week order used for rendering (Sunday=0).
var WeekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// MonthNames is calendar order, January first.
var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WeekOrdinals are the labels accepted for DayOccurrence.WeekOrder.
var WeekOrdinals = [5]string{"First", "Second", "Third", "Fourth", "Last"}

// canonicalName title-cases s ("tuesday", "TUESDAY" -> "Tuesday").
// A Caser is stateful, so one is built per call.
func canonicalName(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// WeekdayIndex returns the Sunday-based index of a weekday name.
func WeekdayIndex(name string) (time.Weekday, bool) {
	n := canonicalName(name)
	for i, w := range WeekdayNames {
		if w == n {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// MonthIndex returns the calendar month for a month name. Numeric strings
// ("3") are accepted as well, since some stores keep months by number.
func MonthIndex(name string) (time.Month, bool) {
	n := canonicalName(name)
	for i, m := range MonthNames {
		if m == n {
			return time.Month(i + 1), true
		}
	}
	if v, err := strconv.Atoi(n); err == nil && v >= 1 && v <= 12 {
		return time.Month(v), true
	}
	return 0, false
}

// OrdinalPosition maps a week ordinal label to its position within the
// month: First..Fourth -> 1..4, Last -> -1.
func OrdinalPosition(label string) (int, bool) {
	switch canonicalName(label) {
	case "First":
		return 1, true
	case "Second":
		return 2, true
	case "Third":
		return 3, true
	case "Fourth":
		return 4, true
	case "Last":
		return -1, true
	}
	return 0, false
}

// OrdinalLabel is the inverse of OrdinalPosition.
func OrdinalLabel(pos int) (string, bool) {
	switch pos {
	case 1, 2, 3, 4:
		return WeekOrdinals[pos-1], true
	case -1:
		return "Last", true
	}
	return "", false
}
