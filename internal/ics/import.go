package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
	"github.com/aerele/taskstream/internal/schedule"
)

// defaultImportHorizon bounds imported rules that carry neither UNTIL nor
// COUNT.
const defaultImportHorizon = 365 * 24 * time.Hour

// ImportedItem is a recurring VEVENT converted into work-item terms.
type ImportedItem struct {
	UID        string
	Summary    string
	Start      time.Time
	Until      time.Time
	Recurrence model.RecurrenceConfig
}

// WorkItem turns the imported event into a work item keyed by its UID.
func (it ImportedItem) WorkItem() model.WorkItem {
	return model.WorkItem{
		ID:          it.UID,
		Title:       it.Summary,
		Recurrence:  it.Recurrence,
		RepeatUntil: it.Until,
	}
}

// Import parses an ICS payload and returns the VEVENTs whose RRULE maps
// onto a work-item recurrence, with reminder hours expressed in loc (nil
// means time.Local). Events without an RRULE, or with a rule outside the
// supported shapes, are logged and skipped.
func Import(body []byte, loc *time.Location) ([]ImportedItem, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	items := make([]ImportedItem, 0)
	for _, ve := range cal.Events() {
		it, ok, perr := parseVEvent(ve, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent import failed", perr)
			continue
		}
		if ok {
			items = append(items, it)
		}
	}

	appLog.Info("ics import completed", "event_count", len(cal.Events()), "imported", len(items))
	return items, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (ImportedItem, bool, error) {
	var out ImportedItem

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, false, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil || strings.TrimSpace(rruleProp.Value) == "" {
		appLog.Debug("ics import: skipping non-recurring event", "uid", out.UID)
		return out, false, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, false, err
	}
	out.Start = start

	cfg, err := schedule.FromRRule(rruleProp.Value)
	if err != nil {
		return out, false, err
	}
	cfg.Times = localHours(cfg.TimeValues(), start, loc, out.UID)
	fillFromStart(&cfg, start.In(loc))

	out.Recurrence = cfg
	out.Until = ruleUntil(rruleProp.Value, start)

	return out, true, nil
}

// localHours re-expresses BYHOUR values, which are wall-clock hours in
// DTSTART's zone, as hours in loc. Without BYHOUR the rule fires at
// DTSTART's hour.
func localHours(hours []int, start time.Time, loc *time.Location, uid string) []model.TimeRow {
	if len(hours) == 0 {
		return []model.TimeRow{{ID: model.NewRowID(), Value: model.IntPtr(start.In(loc).Hour())}}
	}
	rows := make([]model.TimeRow, 0, len(hours))
	for _, h := range hours {
		src := time.Date(start.Year(), start.Month(), start.Day(), h, start.Minute(), 0, 0, start.Location())
		dst := src.In(loc)
		if dst.Day() != src.Day() {
			appLog.Warn("ics import: hour moves to another day in target zone", "uid", uid, "hour", h, "zone", loc.String())
		}
		rows = append(rows, model.TimeRow{ID: model.NewRowID(), Value: model.IntPtr(dst.Hour())})
	}
	return rows
}

// fillFromStart supplies the parts an RRULE leaves to DTSTART: the weekday
// of a WEEKLY rule, the month day of a MONTHLY rule, the month and month
// day of a YEARLY rule.
func fillFromStart(cfg *model.RecurrenceConfig, start time.Time) {
	day := model.MonthDateRow{ID: model.NewRowID(), Value: model.IntPtr(start.Day())}

	switch cfg.Type {
	case model.Weekly:
		if len(cfg.Weekdays) == 0 {
			cfg.Weekdays = []string{model.WeekdayNames[start.Weekday()]}
		}
	case model.Monthly:
		if cfg.MonthlyBasis == model.BasisUnset {
			cfg.MonthlyBasis = model.BasisDate
			cfg.MonthDates = []model.MonthDateRow{day}
		}
	case model.Yearly:
		if len(cfg.Months) == 0 {
			cfg.Months = []string{model.MonthNames[start.Month()-1]}
		}
		if len(cfg.MonthDates) == 0 {
			cfg.MonthDates = []model.MonthDateRow{day}
		}
	}
}

// ruleUntil derives the repeat-until date: UNTIL when present, the last
// instant when COUNT is present, a fixed horizon otherwise.
func ruleUntil(raw string, start time.Time) time.Time {
	opt, err := rrule.StrToROption(strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:"))
	if err != nil {
		return start.Add(defaultImportHorizon)
	}
	if !opt.Until.IsZero() {
		return opt.Until
	}
	if opt.Count > 0 {
		opt.Dtstart = start
		if r, err := rrule.NewRRule(*opt); err == nil {
			if all := r.All(); len(all) > 0 {
				return all[len(all)-1]
			}
		}
	}
	return start.Add(defaultImportHorizon)
}
