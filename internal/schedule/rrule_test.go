package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerele/taskstream/internal/model"
)

func TestRRuleWeekly(t *testing.T) {
	s, err := RRule(model.RecurrenceConfig{
		Type: model.Weekly, Frequency: 2,
		Weekdays: []string{"Wednesday", "Monday"},
		Times:    hours(9),
	}, time.Time{})
	require.NoError(t, err)

	assert.Contains(t, s, "FREQ=WEEKLY")
	assert.Contains(t, s, "INTERVAL=2")
	assert.Contains(t, s, "BYHOUR=9")
	assert.NotContains(t, s, "UNTIL")
}

func TestRRuleUntil(t *testing.T) {
	s, err := RRule(model.RecurrenceConfig{
		Type: model.Monthly, MonthlyBasis: model.BasisDate,
		MonthDates: monthDates(-1),
		Times:      hours(18),
	}, utc(2025, time.June, 30, 23))
	require.NoError(t, err)

	assert.Contains(t, s, "FREQ=MONTHLY")
	assert.Contains(t, s, "BYMONTHDAY=-1")
	assert.Contains(t, s, "UNTIL=20250630T230000Z")
}

func TestRRuleNotExpandable(t *testing.T) {
	_, err := RRule(model.RecurrenceConfig{Type: model.Yearly, Times: hours(9)}, time.Time{})
	assert.ErrorIs(t, err, ErrNotExpandable)
}

func TestRRuleRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.RecurrenceConfig
	}{
		{"weekly", model.RecurrenceConfig{
			Type: model.Weekly, Frequency: 2,
			Weekdays: []string{"Monday", "Wednesday"},
			Times:    hours(9, 14),
		}},
		{"monthly date", model.RecurrenceConfig{
			Type: model.Monthly, Frequency: 1, MonthlyBasis: model.BasisDate,
			MonthDates: monthDates(-1, 15),
			Times:      hours(8),
		}},
		{"monthly day", model.RecurrenceConfig{
			Type: model.Monthly, Frequency: 3, MonthlyBasis: model.BasisDay,
			DayOccurrences: []model.DayOccurrence{
				{WeekOrder: "Second", Weekday: "Tuesday"},
				{WeekOrder: "Last", Weekday: "Friday"},
			},
			Times: hours(10),
		}},
		{"yearly", model.RecurrenceConfig{
			Type: model.Yearly, Frequency: 1,
			Months:     []string{"January", "March"},
			MonthDates: monthDates(15),
			Times:      hours(6),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := RRule(tt.cfg, time.Time{})
			require.NoError(t, err)

			got, err := FromRRule("RRULE:" + s)
			require.NoError(t, err)

			assert.Equal(t, tt.cfg.Type, got.Type)
			assert.Equal(t, tt.cfg.Frequency, got.Frequency)
			assert.Equal(t, tt.cfg.Weekdays, got.Weekdays)
			assert.Equal(t, tt.cfg.MonthlyBasis, got.MonthlyBasis)
			assert.Equal(t, tt.cfg.Months, got.Months)
			assert.Equal(t, tt.cfg.DateValues(), got.DateValues())
			assert.Equal(t, tt.cfg.TimeValues(), got.TimeValues())
			require.Len(t, got.DayOccurrences, len(tt.cfg.DayOccurrences))
			for i, o := range tt.cfg.DayOccurrences {
				assert.Equal(t, o.WeekOrder, got.DayOccurrences[i].WeekOrder)
				assert.Equal(t, o.Weekday, got.DayOccurrences[i].Weekday)
			}
		})
	}
}

func TestFromRRuleUnsupported(t *testing.T) {
	_, err := FromRRule("FREQ=DAILY;BYHOUR=9")
	assert.True(t, errors.Is(err, ErrUnsupportedRule))

	_, err = FromRRule("FREQ=YEARLY;BYMONTH=11;BYDAY=4TH")
	assert.True(t, errors.Is(err, ErrUnsupportedRule))

	_, err = FromRRule("FREQ=NOPE")
	assert.Error(t, err)
}
