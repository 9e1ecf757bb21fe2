// Package ics converts work items to and from iCalendar.
package ics

import (
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
	"github.com/aerele/taskstream/internal/recurrence"
	"github.com/aerele/taskstream/internal/schedule"
)

const (
	defaultProductID = "-//taskstream//work items//EN"
	icalLocalLayout  = "20060102T150405"
	icalUTCLayout    = "20060102T150405Z"
)

// ExportOptions controls calendar export.
type ExportOptions struct {
	// Location is the zone reminders are computed in. DTSTART and DTEND
	// carry it as TZID. If nil, time.Local is used.
	Location *time.Location

	// Now anchors the first exported instant. If zero, time.Now() is used.
	Now time.Time

	// ProductID overrides the PRODID property.
	ProductID string

	// EventLength is the DTEND offset from DTSTART. If zero, one hour.
	EventLength time.Duration
}

// Export renders items as a VCALENDAR with one recurring VEVENT per work
// item. Items whose recurrence has no upcoming instant are skipped.
func Export(items []model.WorkItem, opts ExportOptions) (string, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.ProductID == "" {
		opts.ProductID = defaultProductID
	}
	if opts.EventLength <= 0 {
		opts.EventLength = time.Hour
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)

	exported := 0
	for _, item := range items {
		ok, err := addEvent(cal, item, opts)
		if err != nil {
			return "", err
		}
		if ok {
			exported++
		}
	}

	appLog.Info("ics export completed", "items", len(items), "exported", exported)
	return cal.Serialize(), nil
}

func addEvent(cal *ical.Calendar, item model.WorkItem, opts ExportOptions) (bool, error) {
	if item.ID == "" {
		return false, errors.New("ics export: work item without ID")
	}

	start, ok, err := schedule.First(item.Recurrence, schedule.ExpandConfig{
		Location:    opts.Location,
		Now:         opts.Now,
		RepeatUntil: item.RepeatUntil,
	})
	if err != nil {
		appLog.Error("ics export: expand failed; skipping", err, "id", item.ID)
		return false, nil
	}
	if !ok {
		appLog.Debug("ics export: no upcoming instant; skipping", "id", item.ID)
		return false, nil
	}

	until := item.RepeatUntil.In(opts.Location)
	until = time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, opts.Location)
	rule, err := schedule.RRule(item.Recurrence, until)
	if err != nil {
		return false, err
	}

	ev := cal.AddEvent(item.ID)
	ev.SetDtStampTime(opts.Now)
	setLocalTime(ev, ical.ComponentPropertyDtStart, start, opts.Location)
	setLocalTime(ev, ical.ComponentPropertyDtEnd, start.Add(opts.EventLength), opts.Location)
	ev.SetSummary(item.Title)
	if text := recurrence.Describe(item.Recurrence).Text(); text != "" {
		ev.SetDescription(text)
	}
	ev.AddProperty(ical.ComponentPropertyRrule, rule)

	return true, nil
}

// setLocalTime writes t as wall time in loc. BYHOUR in the RRULE is
// evaluated in DTSTART's zone, so DTSTART must carry loc rather than UTC.
// UTC is written with the Z suffix; the process-local zone has no IANA
// name and is written as floating time.
func setLocalTime(ev *ical.VEvent, prop ical.ComponentProperty, t time.Time, loc *time.Location) {
	switch name := loc.String(); {
	case loc == time.UTC || name == "UTC":
		ev.SetProperty(prop, t.UTC().Format(icalUTCLayout))
	case name == "Local" || name == "":
		ev.SetProperty(prop, t.In(loc).Format(icalLocalLayout))
	default:
		ev.SetProperty(prop, t.In(loc).Format(icalLocalLayout), ical.WithTZID(name))
	}
}
