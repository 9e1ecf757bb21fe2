package recurrence

import "github.com/aerele/taskstream/internal/model"

// WarningKind classifies a row rejection.
type WarningKind string

const (
	OutOfRangeValue WarningKind = "OutOfRangeValue"
	DuplicateValue  WarningKind = "DuplicateValue"
)

// User-facing warning texts.
const (
	MsgDateOutOfRange = "Recurrence Date must be -1 (for last day) or between 1 and 31."
	MsgDateRepeated   = "Recurrence date cannot be repeated!"
	MsgTimeRepeated   = "Recurrence time cannot be repeated!"
)

// silentDuplicateHour is cleared on collision without a warning. Existing
// forms have always behaved this way for 10:00 only.
const silentDuplicateHour = 10

// Warning is a message the caller shows to the user.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Outcome is the corrected state of an edited row. Value is nil when the
// row was cleared (or was empty to begin with).
type Outcome struct {
	Value    *int      `json:"value"`
	Cleared  bool      `json:"cleared"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Warning returns the message to surface, or "" when there is none.
// When several checks fired, the first one recorded wins.
func (o Outcome) Warning() string {
	if len(o.Warnings) == 0 {
		return ""
	}
	return o.Warnings[0].Message
}

func (o *Outcome) reject(kind WarningKind, msg string) {
	o.Value = nil
	o.Cleared = true
	if msg != "" {
		o.Warnings = append(o.Warnings, Warning{Kind: kind, Message: msg})
	}
}

// ValidMonthDate reports whether v is -1 (last day) or within 1..31.
func ValidMonthDate(v int) bool {
	return v == model.LastDayOfMonth || (v >= 1 && v <= 31)
}

// ValidateMonthDate checks an edited month-date row against its siblings.
// The range check and the duplicate check both run on the submitted value,
// so an out-of-range repeat carries two warnings with the range one first.
// Rows sharing edited.ID are the edited row itself and never count as
// duplicates; an edited row without an ID is treated as not yet in all.
func ValidateMonthDate(edited model.MonthDateRow, all []model.MonthDateRow) Outcome {
	out := Outcome{Value: edited.Value}
	if edited.Value == nil {
		return out
	}
	v := *edited.Value

	if !ValidMonthDate(v) {
		out.reject(OutOfRangeValue, MsgDateOutOfRange)
	}

	others := make(map[int]bool, len(all))
	for _, r := range all {
		if r.Value == nil || (edited.ID != "" && r.ID == edited.ID) {
			continue
		}
		others[*r.Value] = true
	}
	if others[v] {
		out.reject(DuplicateValue, MsgDateRepeated)
	}
	return out
}

// ValidateTime checks an edited time row against its siblings. A repeated
// hour is cleared; hour 10 is cleared without a warning.
func ValidateTime(edited model.TimeRow, all []model.TimeRow) Outcome {
	out := Outcome{Value: edited.Value}
	if edited.Value == nil {
		return out
	}
	v := *edited.Value

	for _, r := range all {
		if r.Value == nil || (edited.ID != "" && r.ID == edited.ID) {
			continue
		}
		if *r.Value != v {
			continue
		}
		if v == silentDuplicateHour {
			out.reject(DuplicateValue, "")
		} else {
			out.reject(DuplicateValue, MsgTimeRepeated)
		}
		break
	}
	return out
}
