// Package schedule expands a recurrence configuration into the concrete
// reminder instants it implies, using RFC 5545 rules via rrule-go.
package schedule

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
)

const (
	defaultMaxOccurrences = 5000
)

// ErrNotExpandable is returned when a configuration describes no concrete
// instants (no times, no weekdays for Weekly, unset monthly basis, ...).
var ErrNotExpandable = errors.New("schedule: configuration has no concrete occurrences")

// ExpandConfig controls a single expansion.
type ExpandConfig struct {
	// Location is the timezone the rule is evaluated in. If nil, time.Local
	// is used.
	Location *time.Location

	// Now is the reference instant; only reminders strictly after Now,
	// truncated to the hour, are produced.
	Now time.Time

	// RepeatUntil is the last calendar date (inclusive) that may carry a
	// reminder.
	RepeatUntil time.Time

	// MaxOccurrences caps the result. If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

// ExpandResult holds expanded reminder instants in ascending order.
type ExpandResult struct {
	Times     []time.Time
	Truncated bool
}

// Expand computes the reminder instants for cfg within
// (Now, end of RepeatUntil]. A configuration that implies no instants
// yields an empty result, not an error. Work is bounded by MaxOccurrences,
// not by the length of the window.
func Expand(cfg model.RecurrenceConfig, ec ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if ec.MaxOccurrences <= 0 {
		ec.MaxOccurrences = defaultMaxOccurrences
	}
	r, now, err := windowRule(cfg, ec)
	if err != nil || r == nil {
		return result, err
	}

	next := r.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if !t.After(now) {
			continue
		}
		if len(result.Times) == ec.MaxOccurrences {
			result.Truncated = true
			appLog.Warn("expand: truncated reminders due to cap", "cap", ec.MaxOccurrences, "type", cfg.Type)
			break
		}
		result.Times = append(result.Times, t)
	}
	return result, nil
}

// First returns the earliest reminder instant in the same window Expand
// uses, and false when there is none.
func First(cfg model.RecurrenceConfig, ec ExpandConfig) (time.Time, bool, error) {
	r, now, err := windowRule(cfg, ec)
	if err != nil || r == nil {
		return time.Time{}, false, err
	}
	t := r.After(now, false)
	return t, !t.IsZero(), nil
}

// windowRule builds the rule for cfg bounded by ec. A nil rule with a nil
// error means the window or the configuration holds no instants.
func windowRule(cfg model.RecurrenceConfig, ec ExpandConfig) (*rrule.RRule, time.Time, error) {
	if ec.Location == nil {
		ec.Location = time.Local
	}
	if ec.RepeatUntil.IsZero() {
		return nil, time.Time{}, errors.New("expand: RepeatUntil is required")
	}

	now := ec.Now.In(ec.Location)
	now = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, ec.Location)
	until := ec.RepeatUntil.In(ec.Location)
	end := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, ec.Location)

	if end.Before(now) {
		return nil, now, nil
	}

	opt, err := Options(cfg, now)
	if errors.Is(err, ErrNotExpandable) {
		appLog.Debug("expand: nothing to expand", "type", cfg.Type)
		return nil, now, nil
	}
	if err != nil {
		return nil, now, err
	}
	opt.Until = end

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, now, err
	}
	return r, now, nil
}

// weekdayToRRule is indexed by time.Weekday (Sunday=0).
var weekdayToRRule = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Options builds the rule options for cfg anchored at dtstart. Hours are
// taken from the time rows; minutes and seconds are pinned to zero.
func Options(cfg model.RecurrenceConfig, dtstart time.Time) (*rrule.ROption, error) {
	hours := validHours(cfg.TimeValues())
	if len(hours) == 0 {
		return nil, ErrNotExpandable
	}

	opt := &rrule.ROption{
		Dtstart:  dtstart,
		Interval: cfg.EffectiveFrequency(),
		Byhour:   hours,
		Byminute: []int{0},
		Bysecond: []int{0},
	}

	switch cfg.Type {
	case model.Weekly:
		days := ruleWeekdays(cfg.Weekdays)
		if len(days) == 0 {
			return nil, ErrNotExpandable
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = days

	case model.Monthly:
		opt.Freq = rrule.MONTHLY
		switch cfg.MonthlyBasis {
		case model.BasisDate:
			opt.Bymonthday = validDates(cfg.DateValues())
			if len(opt.Bymonthday) == 0 {
				return nil, ErrNotExpandable
			}
		case model.BasisDay:
			opt.Byweekday = ruleOccurrences(cfg.DayOccurrences)
			if len(opt.Byweekday) == 0 {
				return nil, ErrNotExpandable
			}
		default:
			return nil, ErrNotExpandable
		}

	case model.Yearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = ruleMonths(cfg.Months)
		opt.Bymonthday = validDates(cfg.DateValues())
		if len(opt.Bymonth) == 0 || len(opt.Bymonthday) == 0 {
			return nil, ErrNotExpandable
		}

	default:
		return nil, ErrNotExpandable
	}

	return opt, nil
}

func validHours(vals []int) []int {
	seen := make(map[int]bool)
	out := make([]int, 0, len(vals))
	for _, h := range vals {
		if h < 0 || h > 23 || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func validDates(vals []int) []int {
	seen := make(map[int]bool)
	out := make([]int, 0, len(vals))
	for _, d := range vals {
		if seen[d] || !(d == model.LastDayOfMonth || (d >= 1 && d <= 31)) {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func ruleWeekdays(names []string) []rrule.Weekday {
	var seen [7]bool
	out := make([]rrule.Weekday, 0, len(names))
	for _, n := range names {
		idx, ok := model.WeekdayIndex(n)
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, weekdayToRRule[idx])
	}
	return out
}

func ruleOccurrences(rows []model.DayOccurrence) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(rows))
	for _, r := range rows {
		pos, ok := model.OrdinalPosition(r.WeekOrder)
		if !ok {
			continue
		}
		idx, ok := model.WeekdayIndex(r.Weekday)
		if !ok {
			continue
		}
		wd := weekdayToRRule[idx]
		out = append(out, wd.Nth(pos))
	}
	return out
}

func ruleMonths(names []string) []int {
	var seen [13]bool
	out := make([]int, 0, len(names))
	for _, n := range names {
		m, ok := model.MonthIndex(n)
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, int(m))
	}
	return out
}
