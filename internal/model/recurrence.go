package model

import "github.com/google/uuid"

// RecurrenceType is the top-level cadence of a work item.
type RecurrenceType string

const (
	Weekly  RecurrenceType = "Weekly"
	Monthly RecurrenceType = "Monthly"
	Yearly  RecurrenceType = "Yearly"
)

// Known reports whether t is one of the supported cadences.
func (t RecurrenceType) Known() bool {
	switch t {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// MonthlyBasis selects which collection drives a Monthly recurrence.
// The zero value means "unset".
type MonthlyBasis string

const (
	BasisUnset MonthlyBasis = ""
	BasisDate  MonthlyBasis = "Date"
	BasisDay   MonthlyBasis = "Day"
)

// LastDayOfMonth is the month-date sentinel for "last day of the month".
const LastDayOfMonth = -1

// MonthDateRow is one entry of the month-dates table. A nil Value is an
// empty (or cleared) row.
type MonthDateRow struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Value *int   `json:"value" yaml:"value"`
}

// TimeRow is one entry of the recurrence-times table; Value is an hour.
type TimeRow struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Value *int   `json:"value" yaml:"value"`
}

// DayOccurrence is an ordinal weekday such as ("Second", "Tuesday").
type DayOccurrence struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	WeekOrder string `json:"week_order" yaml:"week_order"`
	Weekday   string `json:"weekday" yaml:"weekday"`
}

// RecurrenceConfig is the aggregate read by the description compiler and
// the reminder expander. It is owned by the caller; neither component
// mutates it.
type RecurrenceConfig struct {
	Frequency      int             `json:"frequency" yaml:"frequency"`
	Type           RecurrenceType  `json:"type" yaml:"type"`
	Weekdays       []string        `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	MonthlyBasis   MonthlyBasis    `json:"monthly_basis,omitempty" yaml:"monthly_basis,omitempty"`
	MonthDates     []MonthDateRow  `json:"month_dates,omitempty" yaml:"month_dates,omitempty"`
	DayOccurrences []DayOccurrence `json:"day_occurrences,omitempty" yaml:"day_occurrences,omitempty"`
	Times          []TimeRow       `json:"times,omitempty" yaml:"times,omitempty"`
	Months         []string        `json:"months,omitempty" yaml:"months,omitempty"`
}

// EffectiveFrequency returns Frequency, defaulting to 1 for unset or
// non-positive values.
func (c RecurrenceConfig) EffectiveFrequency() int {
	if c.Frequency < 1 {
		return 1
	}
	return c.Frequency
}

// DateValues returns the non-empty month-date values in stored order.
func (c RecurrenceConfig) DateValues() []int {
	out := make([]int, 0, len(c.MonthDates))
	for _, r := range c.MonthDates {
		if r.Value != nil {
			out = append(out, *r.Value)
		}
	}
	return out
}

// TimeValues returns the non-empty hour values in stored order.
func (c RecurrenceConfig) TimeValues() []int {
	out := make([]int, 0, len(c.Times))
	for _, r := range c.Times {
		if r.Value != nil {
			out = append(out, *r.Value)
		}
	}
	return out
}

// AssignRowIDs gives every row without an ID a fresh one. Row identity is
// what lets the validators skip the edited row when looking for duplicates.
func (c *RecurrenceConfig) AssignRowIDs() {
	for i := range c.MonthDates {
		if c.MonthDates[i].ID == "" {
			c.MonthDates[i].ID = NewRowID()
		}
	}
	for i := range c.Times {
		if c.Times[i].ID == "" {
			c.Times[i].ID = NewRowID()
		}
	}
	for i := range c.DayOccurrences {
		if c.DayOccurrences[i].ID == "" {
			c.DayOccurrences[i].ID = NewRowID()
		}
	}
}

// NewRowID returns a random row identifier.
func NewRowID() string {
	return uuid.NewString()
}

// IntPtr is a small helper for building rows in code and tests.
func IntPtr(v int) *int {
	return &v
}
