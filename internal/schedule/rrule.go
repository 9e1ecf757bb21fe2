package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/aerele/taskstream/internal/model"
)

// ErrUnsupportedRule is returned by FromRRule for rules outside the
// Weekly / Monthly / Yearly shapes a work item can hold.
var ErrUnsupportedRule = errors.New("schedule: unsupported rule")

// RRule renders cfg as an RRULE value (without the "RRULE:" prefix).
// A non-zero until is emitted as UNTIL.
func RRule(cfg model.RecurrenceConfig, until time.Time) (string, error) {
	opt, err := Options(cfg, time.Time{})
	if err != nil {
		return "", err
	}
	opt.Until = until
	return opt.RRuleString(), nil
}

// FromRRule parses an RRULE value (with or without the "RRULE:" prefix)
// into a recurrence configuration. UNTIL and COUNT are not part of the
// configuration and are ignored.
func FromRRule(s string) (model.RecurrenceConfig, error) {
	var cfg model.RecurrenceConfig

	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return cfg, fmt.Errorf("parse rrule %q: %w", s, err)
	}

	cfg.Frequency = opt.Interval
	if cfg.Frequency < 1 {
		cfg.Frequency = 1
	}

	for _, h := range opt.Byhour {
		cfg.Times = append(cfg.Times, model.TimeRow{ID: model.NewRowID(), Value: model.IntPtr(h)})
	}

	switch opt.Freq {
	case rrule.WEEKLY:
		cfg.Type = model.Weekly
		for _, wd := range opt.Byweekday {
			cfg.Weekdays = append(cfg.Weekdays, weekdayName(wd))
		}

	case rrule.MONTHLY:
		cfg.Type = model.Monthly
		switch {
		case len(opt.Bymonthday) > 0:
			cfg.MonthlyBasis = model.BasisDate
			cfg.MonthDates = dateRows(opt.Bymonthday)
		case len(opt.Byweekday) > 0:
			cfg.MonthlyBasis = model.BasisDay
			for _, wd := range opt.Byweekday {
				label, ok := model.OrdinalLabel(wd.N())
				if !ok {
					return cfg, fmt.Errorf("%w: week ordinal %d", ErrUnsupportedRule, wd.N())
				}
				cfg.DayOccurrences = append(cfg.DayOccurrences, model.DayOccurrence{
					ID:        model.NewRowID(),
					WeekOrder: label,
					Weekday:   weekdayName(wd),
				})
			}
		}

	case rrule.YEARLY:
		cfg.Type = model.Yearly
		if len(opt.Byweekday) > 0 {
			return cfg, fmt.Errorf("%w: yearly BYDAY", ErrUnsupportedRule)
		}
		for _, m := range opt.Bymonth {
			if m < 1 || m > 12 {
				return cfg, fmt.Errorf("%w: month %d", ErrUnsupportedRule, m)
			}
			cfg.Months = append(cfg.Months, model.MonthNames[m-1])
		}
		cfg.MonthDates = dateRows(opt.Bymonthday)

	default:
		return cfg, fmt.Errorf("%w: frequency %v", ErrUnsupportedRule, opt.Freq)
	}

	return cfg, nil
}

// weekdayName converts an rrule weekday (Monday=0) to its name.
func weekdayName(wd rrule.Weekday) string {
	return model.WeekdayNames[(wd.Day()+1)%7]
}

func dateRows(vals []int) []model.MonthDateRow {
	rows := make([]model.MonthDateRow, 0, len(vals))
	for _, v := range vals {
		rows = append(rows, model.MonthDateRow{ID: model.NewRowID(), Value: model.IntPtr(v)})
	}
	return rows
}
