package recurrence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aerele/taskstream/internal/model"
)

var (
	ErrInvalidFrequency = errors.New("invalid recurrence frequency")
	ErrUnknownType      = errors.New("unknown recurrence type")
	ErrUnknownBasis     = errors.New("unknown monthly basis")
	ErrUnknownWeekday   = errors.New("unknown weekday")
	ErrUnknownMonth     = errors.New("unknown month")
	ErrUnknownOrdinal   = errors.New("unknown week ordinal")
	ErrInvalidDate      = errors.New("invalid recurrence date")
	ErrDuplicateDate    = errors.New("each recurrence date must be unique")
	ErrInvalidTime      = errors.New("invalid recurrence time")
	ErrDuplicateTime    = errors.New("each recurrence time must be unique")
)

// ValidateConfig checks a whole configuration before it is saved. Unlike
// the row validators it does not repair anything: every problem found is
// returned, joined, and each wraps one of the Err* sentinels.
// An empty Type means "no recurrence" and is accepted.
func ValidateConfig(cfg model.RecurrenceConfig) error {
	var errs []error

	if cfg.Frequency < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidFrequency, cfg.Frequency))
	}
	if cfg.Type != "" && !cfg.Type.Known() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type))
	}
	switch cfg.MonthlyBasis {
	case model.BasisUnset, model.BasisDate, model.BasisDay:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBasis, cfg.MonthlyBasis))
	}

	for _, d := range cfg.Weekdays {
		if _, ok := model.WeekdayIndex(d); !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownWeekday, d))
		}
	}
	for _, m := range cfg.Months {
		if _, ok := model.MonthIndex(m); !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownMonth, m))
		}
	}
	for _, o := range cfg.DayOccurrences {
		if strings.TrimSpace(o.WeekOrder) == "" && strings.TrimSpace(o.Weekday) == "" {
			continue
		}
		if _, ok := model.OrdinalPosition(o.WeekOrder); !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownOrdinal, o.WeekOrder))
		}
		if _, ok := model.WeekdayIndex(o.Weekday); !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownWeekday, o.Weekday))
		}
	}

	seenDates := make(map[int]bool)
	for _, v := range cfg.DateValues() {
		if !ValidMonthDate(v) {
			errs = append(errs, fmt.Errorf("%w: '%d': date must be -1 (for last day) or between 1 and 31", ErrInvalidDate, v))
			continue
		}
		if seenDates[v] {
			errs = append(errs, fmt.Errorf("%w: %d", ErrDuplicateDate, v))
		}
		seenDates[v] = true
	}

	seenTimes := make(map[int]bool)
	for _, v := range cfg.TimeValues() {
		if v < 0 || v > 23 {
			errs = append(errs, fmt.Errorf("%w: '%d': hour must be between 0 and 23", ErrInvalidTime, v))
			continue
		}
		if seenTimes[v] {
			errs = append(errs, fmt.Errorf("%w: %d", ErrDuplicateTime, v))
		}
		seenTimes[v] = true
	}

	return errors.Join(errs...)
}
