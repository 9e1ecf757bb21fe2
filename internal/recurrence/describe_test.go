package recurrence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerele/taskstream/internal/model"
)

func dates(vals ...int) []model.MonthDateRow {
	rows := make([]model.MonthDateRow, len(vals))
	for i, v := range vals {
		rows[i] = model.MonthDateRow{ID: fmt.Sprintf("d%d", i), Value: model.IntPtr(v)}
	}
	return rows
}

func times(vals ...int) []model.TimeRow {
	rows := make([]model.TimeRow, len(vals))
	for i, v := range vals {
		rows[i] = model.TimeRow{ID: fmt.Sprintf("t%d", i), Value: model.IntPtr(v)}
	}
	return rows
}

func TestDescribeWeekly(t *testing.T) {
	t.Run("no weekdays anchors at frequency", func(t *testing.T) {
		d := Describe(model.RecurrenceConfig{Type: model.Weekly, Frequency: 1})
		assert.Equal(t, Descriptions{AnchorFrequency: "Every 1 week", AnchorWeekday: ""}, d)
	})

	t.Run("weekdays sorted with times", func(t *testing.T) {
		d := Describe(model.RecurrenceConfig{
			Type:      model.Weekly,
			Frequency: 2,
			Weekdays:  []string{"Saturday", "Monday", "Sunday"},
			Times:     times(17, 8),
		})
		assert.Equal(t, Descriptions{
			AnchorWeekday:   "Every 2 weeks on Sunday, Monday, Saturday at 8:00, 17:00 hrs",
			AnchorFrequency: "",
		}, d)
	})
}

func TestDescribeMonthly(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.RecurrenceConfig
		want Descriptions
	}{
		{
			name: "no entries",
			cfg:  model.RecurrenceConfig{Type: model.Monthly, Frequency: 1, MonthlyBasis: model.BasisDate},
			want: Descriptions{AnchorFrequency: "Every 1 month", AnchorBasis: ""},
		},
		{
			name: "by date",
			cfg: model.RecurrenceConfig{
				Type: model.Monthly, Frequency: 2, MonthlyBasis: model.BasisDate,
				MonthDates: dates(20, -1, 5),
				Times:      times(9),
			},
			want: Descriptions{
				AnchorBasis:     "Every 2 months on -1, 5, 20 at 9:00 hrs",
				AnchorFrequency: "",
				AnchorWeekday:   "",
			},
		},
		{
			name: "by day keeps stored order",
			cfg: model.RecurrenceConfig{
				Type: model.Monthly, Frequency: 1, MonthlyBasis: model.BasisDay,
				DayOccurrences: []model.DayOccurrence{
					{WeekOrder: "Last", Weekday: "Friday"},
					{WeekOrder: "First", Weekday: "Monday"},
				},
			},
			want: Descriptions{
				AnchorBasis:     "Every 1 month on Last Friday, First Monday",
				AnchorFrequency: "",
				AnchorWeekday:   "",
			},
		},
		{
			name: "basis unset with entries",
			cfg: model.RecurrenceConfig{
				Type: model.Monthly, Frequency: 3,
				MonthDates: dates(4),
			},
			want: Descriptions{AnchorFrequency: "Every 3 months", AnchorBasis: ""},
		},
		{
			name: "basis points at empty collection",
			cfg: model.RecurrenceConfig{
				Type: model.Monthly, Frequency: 1, MonthlyBasis: model.BasisDay,
				MonthDates: dates(4),
			},
			want: Descriptions{AnchorFrequency: "Every 1 month", AnchorBasis: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.cfg))
		})
	}
}

func TestDescribeMonthlyExclusiveBasis(t *testing.T) {
	cfg := model.RecurrenceConfig{
		Type:       model.Monthly,
		MonthDates: dates(10),
		DayOccurrences: []model.DayOccurrence{
			{WeekOrder: "Second", Weekday: "Tuesday"},
		},
	}

	cfg.MonthlyBasis = model.BasisDate
	byDate := Describe(cfg).Text()
	cfg.MonthlyBasis = model.BasisDay
	byDay := Describe(cfg).Text()

	assert.Equal(t, "Every 1 month on 10", byDate)
	assert.Equal(t, "Every 1 month on Second Tuesday", byDay)
}

func TestDescribeYearly(t *testing.T) {
	t.Run("nothing selected", func(t *testing.T) {
		d := Describe(model.RecurrenceConfig{Type: model.Yearly, Frequency: 2})
		assert.Equal(t, Descriptions{AnchorFrequency: "Every 2 years", AnchorMonth: ""}, d)
	})

	t.Run("months and dates", func(t *testing.T) {
		d := Describe(model.RecurrenceConfig{
			Type:       model.Yearly,
			Frequency:  1,
			Months:     []string{"March", "January"},
			MonthDates: dates(15),
		})
		assert.Equal(t, Descriptions{AnchorMonth: "Every 1 year in January, March on 15", AnchorFrequency: ""}, d)
	})

	t.Run("dates alone do not leave the frequency anchor", func(t *testing.T) {
		d := Describe(model.RecurrenceConfig{Type: model.Yearly, MonthDates: dates(3)})
		assert.Equal(t, Descriptions{AnchorFrequency: "Every 1 year", AnchorMonth: ""}, d)
	})
}

func TestDescribeUnknownTypeTouchesNothing(t *testing.T) {
	d := Describe(model.RecurrenceConfig{Type: "Daily", Times: times(9)})
	assert.Empty(t, d)
	_, ok := d.Anchor()
	assert.False(t, ok)
}

func TestDescribePluralization(t *testing.T) {
	for _, typ := range []model.RecurrenceType{model.Weekly, model.Monthly, model.Yearly} {
		for freq := 0; freq <= 4; freq++ {
			text := Describe(model.RecurrenceConfig{Type: typ, Frequency: freq}).Text()
			unit := strings.ToLower(strings.TrimSuffix(string(typ), "ly"))
			if typ == model.Weekly {
				unit = "week"
			}
			if freq > 1 {
				assert.Equal(t, fmt.Sprintf("Every %d %ss", freq, unit), text)
			} else {
				assert.Equal(t, fmt.Sprintf("Every 1 %s", unit), text)
			}
		}
	}
}

func TestDescribeIsIdempotentAndPure(t *testing.T) {
	cfg := model.RecurrenceConfig{
		Type:     model.Weekly,
		Weekdays: []string{"Friday", "Monday"},
		Times:    times(14, 9),
	}
	first := Describe(cfg)
	second := Describe(cfg)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Friday", "Monday"}, cfg.Weekdays)
	assert.Equal(t, 14, *cfg.Times[0].Value)
}

func TestSortWeekdays(t *testing.T) {
	in := []string{"Thursday", "sunday", "Thursday", "", "Blursday", "Monday"}
	got := SortWeekdays(in)

	assert.Equal(t, []string{"Sunday", "Monday", "Thursday", "Blursday"}, got)
	assert.Equal(t, got, SortWeekdays(got))
}

func TestSortMonths(t *testing.T) {
	assert.Equal(t,
		[]string{"January", "March", "December"},
		SortMonths([]string{"December", "march", "January", "March"}),
	)
}

func TestFormatTimes(t *testing.T) {
	assert.Equal(t, "9:00, 14:00", FormatTimes([]int{14, 9, 9}))
	assert.Equal(t, " at 9:00, 14:00 hrs", timeSuffix([]int{14, 9, 9}))
	assert.Equal(t, "", timeSuffix(nil))
}

func TestDescribeGolden(t *testing.T) {
	fixtures := []struct {
		name string
		cfg  model.RecurrenceConfig
	}{
		{"weekly-empty", model.RecurrenceConfig{Type: model.Weekly, Frequency: 1}},
		{"weekly-days", model.RecurrenceConfig{
			Type: model.Weekly, Frequency: 2,
			Weekdays: []string{"Friday", "monday", "Wednesday"},
			Times:    times(14, 9),
		}},
		{"monthly-empty", model.RecurrenceConfig{Type: model.Monthly, Frequency: 3}},
		{"monthly-date", model.RecurrenceConfig{
			Type: model.Monthly, MonthlyBasis: model.BasisDate,
			MonthDates: dates(15, -1, 1),
			Times:      times(8),
		}},
		{"monthly-day", model.RecurrenceConfig{
			Type: model.Monthly, MonthlyBasis: model.BasisDay,
			DayOccurrences: []model.DayOccurrence{
				{WeekOrder: "Second", Weekday: "Tuesday"},
				{WeekOrder: "First", Weekday: "Monday"},
			},
		}},
		{"monthly-unset", model.RecurrenceConfig{Type: model.Monthly, Frequency: 2, MonthDates: dates(5)}},
		{"yearly-empty", model.RecurrenceConfig{Type: model.Yearly, Frequency: 2}},
		{"yearly-full", model.RecurrenceConfig{
			Type: model.Yearly, Frequency: 1,
			Months:     []string{"March", "January"},
			MonthDates: dates(15),
		}},
		{"yearly-times-only", model.RecurrenceConfig{Type: model.Yearly, Times: times(6)}},
		{"unknown-type", model.RecurrenceConfig{Type: "Daily"}},
	}

	var b strings.Builder
	for _, f := range fixtures {
		d := Describe(f.cfg)
		anchor, ok := d.Anchor()
		if !ok {
			anchor = "-"
		}
		fmt.Fprintf(&b, "%s [%s] %q\n", f.name, anchor, d.Text())
	}

	g := goldie.New(t)
	g.Assert(t, "describe", []byte(b.String()))
}

func TestDescriptionsText(t *testing.T) {
	d := Descriptions{AnchorFrequency: "", AnchorMonth: "Every 1 year in May"}
	require.Equal(t, "Every 1 year in May", d.Text())
	a, ok := d.Anchor()
	require.True(t, ok)
	assert.Equal(t, AnchorMonth, a)
}
