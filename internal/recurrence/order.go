package recurrence

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aerele/taskstream/internal/model"
)

// SortWeekdays returns the distinct, non-blank weekday names in canonical
// week order (Sunday..Saturday). Known names come back title-cased;
// unrecognized names are kept after Saturday in first-seen order.
func SortWeekdays(days []string) []string {
	var known [7]bool
	var unknown []string
	seen := make(map[string]bool)

	for _, d := range days {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if idx, ok := model.WeekdayIndex(d); ok {
			known[idx] = true
			continue
		}
		if !seen[d] {
			seen[d] = true
			unknown = append(unknown, d)
		}
	}

	out := make([]string, 0, len(days))
	for i, present := range known {
		if present {
			out = append(out, model.WeekdayNames[i])
		}
	}
	return append(out, unknown...)
}

// SortMonths returns the distinct, non-blank month names in calendar order,
// with the same handling of unrecognized names as SortWeekdays.
func SortMonths(months []string) []string {
	var known [12]bool
	var unknown []string
	seen := make(map[string]bool)

	for _, m := range months {
		if strings.TrimSpace(m) == "" {
			continue
		}
		if idx, ok := model.MonthIndex(m); ok {
			known[idx-1] = true
			continue
		}
		if !seen[m] {
			seen[m] = true
			unknown = append(unknown, m)
		}
	}

	out := make([]string, 0, len(months))
	for i, present := range known {
		if present {
			out = append(out, model.MonthNames[i])
		}
	}
	return append(out, unknown...)
}

// sortedUnique sorts ints ascending and drops repeats. -1 (last day) sorts
// numerically, i.e. first.
func sortedUnique(vals []int) []int {
	out := append([]int(nil), vals...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// FormatTimes renders hours ascending as "9:00, 14:00".
func FormatTimes(hours []int) string {
	sorted := sortedUnique(hours)
	parts := make([]string, len(sorted))
	for i, h := range sorted {
		parts[i] = strconv.Itoa(h) + ":00"
	}
	return strings.Join(parts, ", ")
}
