package model

import "time"

// WorkItem is the persisted record that owns a recurrence configuration.
// Only the fields the recurrence engine and reminder pipeline need are kept;
// status, reviewer and scoring live with the host application.
type WorkItem struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Assignee string `json:"assignee,omitempty" yaml:"assignee,omitempty"`

	Recurrence RecurrenceConfig `json:"recurrence" yaml:"recurrence"`

	// RepeatUntil bounds reminder expansion; compared by calendar date
	// (inclusive) in the configured display timezone.
	RepeatUntil time.Time `json:"repeat_until" yaml:"repeat_until"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Reminder is a single concrete reminder instant produced by expanding a
// work item's recurrence.
type Reminder struct {
	WorkItemID string    `json:"work_item_id"`
	At         time.Time `json:"at"`
	Sent       bool      `json:"sent"`
}
