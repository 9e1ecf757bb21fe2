// Package recurrence turns a work item's recurrence configuration into
// plain-language text and guards the configuration's repeatable rows
// against out-of-range and duplicate values.
package recurrence

import (
	"fmt"
	"strings"

	"github.com/aerele/taskstream/internal/model"
)

// Anchor names a display slot that can carry a description.
type Anchor string

const (
	AnchorFrequency Anchor = "frequency"
	AnchorWeekday   Anchor = "weekday"
	AnchorBasis     Anchor = "basis"
	AnchorMonth     Anchor = "month"
)

var anchorOrder = []Anchor{AnchorFrequency, AnchorWeekday, AnchorBasis, AnchorMonth}

// Descriptions maps each anchor a render touches to its new text. An
// anchor present with "" must be cleared by the caller; an absent anchor
// is left alone.
type Descriptions map[Anchor]string

// Text returns the one non-empty description, or "".
func (d Descriptions) Text() string {
	for _, a := range anchorOrder {
		if s := d[a]; s != "" {
			return s
		}
	}
	return ""
}

// Anchor returns the anchor carrying the description and whether any does.
func (d Descriptions) Anchor() (Anchor, bool) {
	for _, a := range anchorOrder {
		if d[a] != "" {
			return a, true
		}
	}
	return "", false
}

// Describe renders cfg. It recomputes everything from cfg on each call and
// always reports the anchors it does not use as cleared, so stale text
// cannot survive a re-render. An unrecognized Type touches no anchors.
func Describe(cfg model.RecurrenceConfig) Descriptions {
	switch cfg.Type {
	case model.Weekly:
		return describeWeekly(cfg)
	case model.Monthly:
		return describeMonthly(cfg)
	case model.Yearly:
		return describeYearly(cfg)
	}
	return Descriptions{}
}

func describeWeekly(cfg model.RecurrenceConfig) Descriptions {
	base := every(cfg.EffectiveFrequency(), "week")
	days := SortWeekdays(cfg.Weekdays)
	if len(days) == 0 {
		return Descriptions{AnchorFrequency: base, AnchorWeekday: ""}
	}

	desc := base + " on " + strings.Join(days, ", ") + timeSuffix(cfg.TimeValues())
	return Descriptions{AnchorWeekday: desc, AnchorFrequency: ""}
}

func describeMonthly(cfg model.RecurrenceConfig) Descriptions {
	base := every(cfg.EffectiveFrequency(), "month")
	dates := cfg.DateValues()
	occurrences := renderOccurrences(cfg.DayOccurrences)

	if len(dates) == 0 && len(occurrences) == 0 {
		return Descriptions{AnchorFrequency: base, AnchorBasis: ""}
	}

	var on string
	switch cfg.MonthlyBasis {
	case model.BasisDate:
		if len(dates) > 0 {
			on = joinInts(sortedUnique(dates))
		}
	case model.BasisDay:
		on = strings.Join(occurrences, ", ")
	}
	if on == "" {
		// Entries exist but the basis is unset or points at the empty
		// collection.
		return Descriptions{AnchorFrequency: base, AnchorBasis: ""}
	}

	desc := base + " on " + on + timeSuffix(cfg.TimeValues())
	return Descriptions{AnchorBasis: desc, AnchorFrequency: "", AnchorWeekday: ""}
}

func describeYearly(cfg model.RecurrenceConfig) Descriptions {
	base := every(cfg.EffectiveFrequency(), "year")
	months := SortMonths(cfg.Months)
	times := cfg.TimeValues()

	if len(months) == 0 && len(times) == 0 {
		return Descriptions{AnchorFrequency: base, AnchorMonth: ""}
	}

	desc := base
	if len(months) > 0 {
		desc += " in " + strings.Join(months, ", ")
	}
	if dates := cfg.DateValues(); len(dates) > 0 {
		desc += " on " + joinInts(sortedUnique(dates))
	}
	desc += timeSuffix(times)
	return Descriptions{AnchorMonth: desc, AnchorFrequency: ""}
}

// renderOccurrences keeps stored order; incomplete rows render whatever
// half is filled in, empty rows are dropped.
func renderOccurrences(rows []model.DayOccurrence) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		s := strings.TrimSpace(strings.TrimSpace(r.WeekOrder) + " " + strings.TrimSpace(r.Weekday))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func every(n int, unit string) string {
	if n > 1 {
		unit += "s"
	}
	return fmt.Sprintf("Every %d %s", n, unit)
}

func timeSuffix(hours []int) string {
	if len(hours) == 0 {
		return ""
	}
	return " at " + FormatTimes(hours) + " hrs"
}
