package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerele/taskstream/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleItem(id string) *model.WorkItem {
	return &model.WorkItem{
		ID:       id,
		Title:    "Pay invoices",
		Assignee: "alice@example.com",
		Recurrence: model.RecurrenceConfig{
			Type:         model.Monthly,
			Frequency:    1,
			MonthlyBasis: model.BasisDate,
			MonthDates:   []model.MonthDateRow{{ID: "d1", Value: model.IntPtr(-1)}},
			Times:        []model.TimeRow{{ID: "t1", Value: model.IntPtr(17)}},
		},
		RepeatUntil: time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

// --- Work item tests ---

func TestSaveAndGetWorkItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	wi := sampleItem("wi-1")
	require.NoError(t, s.SaveWorkItem(ctx, wi))
	assert.False(t, wi.CreatedAt.IsZero())

	got, err := s.GetWorkItem(ctx, "wi-1")
	require.NoError(t, err)
	assert.Equal(t, "Pay invoices", got.Title)
	assert.Equal(t, "alice@example.com", got.Assignee)
	assert.Equal(t, wi.Recurrence, got.Recurrence)
	assert.True(t, got.RepeatUntil.Equal(wi.RepeatUntil))
}

func TestSaveWorkItemUpdateKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := at(2024, time.June, 1, 8)
	wi := sampleItem("wi-1")
	wi.CreatedAt = created
	require.NoError(t, s.SaveWorkItem(ctx, wi))

	update := sampleItem("wi-1")
	update.Title = "Pay all invoices"
	require.NoError(t, s.SaveWorkItem(ctx, update))
	// The caller's copy reflects the stored creation time, not the update.
	assert.True(t, update.CreatedAt.Equal(created), update.CreatedAt.String())
	assert.True(t, update.UpdatedAt.After(created))

	got, err := s.GetWorkItem(ctx, "wi-1")
	require.NoError(t, err)
	assert.Equal(t, "Pay all invoices", got.Title)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestGetWorkItemNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetWorkItem(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListAndDeleteWorkItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorkItem(ctx, sampleItem("a")))
	require.NoError(t, s.SaveWorkItem(ctx, sampleItem("b")))
	require.NoError(t, s.ReplaceReminders(ctx, "a", []time.Time{at(2025, time.January, 31, 17)}))

	items, err := s.ListWorkItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, s.DeleteWorkItem(ctx, "a"))
	assert.True(t, errors.Is(s.DeleteWorkItem(ctx, "a"), ErrNotFound))

	rems, err := s.ListReminders(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, rems)
}

// --- Reminder tests ---

func TestRemindersDueAndSent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveWorkItem(ctx, sampleItem("wi-1")))

	times := []time.Time{
		at(2025, time.January, 31, 17),
		at(2025, time.February, 28, 17),
		at(2025, time.March, 31, 17),
	}
	require.NoError(t, s.ReplaceReminders(ctx, "wi-1", times))

	due, err := s.DueReminders(ctx, at(2025, time.February, 28, 17))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.True(t, due[0].At.Equal(times[0]))

	require.NoError(t, s.MarkReminderSent(ctx, "wi-1", times[0]))
	due, err = s.DueReminders(ctx, at(2025, time.February, 28, 17))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.True(t, due[0].At.Equal(times[1]))

	err = s.MarkReminderSent(ctx, "wi-1", at(2030, time.January, 1, 0))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReplaceRemindersKeepsSent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveWorkItem(ctx, sampleItem("wi-1")))

	jan := at(2025, time.January, 31, 17)
	feb := at(2025, time.February, 28, 17)
	require.NoError(t, s.ReplaceReminders(ctx, "wi-1", []time.Time{jan, feb}))
	require.NoError(t, s.MarkReminderSent(ctx, "wi-1", jan))

	mar := at(2025, time.March, 31, 17)
	require.NoError(t, s.ReplaceReminders(ctx, "wi-1", []time.Time{jan, mar}))

	rems, err := s.ListReminders(ctx, "wi-1")
	require.NoError(t, err)
	require.Len(t, rems, 2)
	assert.True(t, rems[0].At.Equal(jan))
	assert.True(t, rems[0].Sent)
	assert.True(t, rems[1].At.Equal(mar))
	assert.False(t, rems[1].Sent)
}
