// Package workitem ties the recurrence engine to persistence: it validates
// a work item's recurrence, stores it and keeps its reminders in step.
package workitem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
	"github.com/aerele/taskstream/internal/recurrence"
	"github.com/aerele/taskstream/internal/schedule"
)

// ErrInvalid marks input problems (as opposed to storage failures).
var ErrInvalid = errors.New("invalid work item")

// Store is the persistence the service needs.
type Store interface {
	SaveWorkItem(ctx context.Context, wi *model.WorkItem) error
	GetWorkItem(ctx context.Context, id string) (model.WorkItem, error)
	ListWorkItems(ctx context.Context) ([]model.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id string) error
	ReplaceReminders(ctx context.Context, workItemID string, times []time.Time) error
	ListReminders(ctx context.Context, workItemID string) ([]model.Reminder, error)
}

// Options configures reminder expansion.
type Options struct {
	Location       *time.Location
	HorizonDays    int // used when a work item has no RepeatUntil
	MaxOccurrences int
	Now            func() time.Time
}

// Service is safe for concurrent use if its Store is.
type Service struct {
	store Store
	opts  Options
}

// Saved is the result of a save: the stored item, its description and the
// number of reminders scheduled.
type Saved struct {
	WorkItem     model.WorkItem          `json:"work_item"`
	Descriptions recurrence.Descriptions `json:"descriptions"`
	Description  string                  `json:"description"`
	Reminders    int                     `json:"reminders"`
	Truncated    bool                    `json:"truncated,omitempty"`
}

func New(store Store, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 365
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, opts: opts}
}

// Save validates wi, assigns missing IDs, persists it and recomputes its
// pending reminders.
func (s *Service) Save(ctx context.Context, wi model.WorkItem) (Saved, error) {
	if strings.TrimSpace(wi.Title) == "" {
		return Saved{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if err := recurrence.ValidateConfig(wi.Recurrence); err != nil {
		return Saved{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if wi.ID == "" {
		wi.ID = uuid.NewString()
	}
	wi.Recurrence.AssignRowIDs()

	now := s.opts.Now()
	if wi.RepeatUntil.IsZero() {
		wi.RepeatUntil = now.In(s.opts.Location).AddDate(0, 0, s.opts.HorizonDays)
	}

	if err := s.store.SaveWorkItem(ctx, &wi); err != nil {
		return Saved{}, err
	}

	res, err := s.expand(wi, now)
	if err != nil {
		return Saved{}, err
	}
	if err := s.store.ReplaceReminders(ctx, wi.ID, res.Times); err != nil {
		return Saved{}, err
	}

	d := recurrence.Describe(wi.Recurrence)
	appLog.Info("work item saved", "id", wi.ID, "type", wi.Recurrence.Type, "reminders", len(res.Times))

	return Saved{
		WorkItem:     wi,
		Descriptions: d,
		Description:  d.Text(),
		Reminders:    len(res.Times),
		Truncated:    res.Truncated,
	}, nil
}

// Refresh recomputes pending reminders for every stored work item, e.g.
// after a restart or a timezone change.
func (s *Service) Refresh(ctx context.Context) error {
	items, err := s.store.ListWorkItems(ctx)
	if err != nil {
		return err
	}
	now := s.opts.Now()
	var errs []error
	for _, wi := range items {
		res, err := s.expand(wi, now)
		if err == nil {
			err = s.store.ReplaceReminders(ctx, wi.ID, res.Times)
		}
		if err != nil {
			appLog.Error("reminder refresh failed", err, "id", wi.ID)
			errs = append(errs, fmt.Errorf("%s: %w", wi.ID, err))
		}
	}
	appLog.Info("reminders refreshed", "work_items", len(items), "failed", len(errs))
	return errors.Join(errs...)
}

func (s *Service) Get(ctx context.Context, id string) (model.WorkItem, error) {
	return s.store.GetWorkItem(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.WorkItem, error) {
	return s.store.ListWorkItems(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteWorkItem(ctx, id)
}

func (s *Service) Reminders(ctx context.Context, id string) ([]model.Reminder, error) {
	if _, err := s.store.GetWorkItem(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListReminders(ctx, id)
}

func (s *Service) expand(wi model.WorkItem, now time.Time) (schedule.ExpandResult, error) {
	return schedule.Expand(wi.Recurrence, schedule.ExpandConfig{
		Location:       s.opts.Location,
		Now:            now,
		RepeatUntil:    wi.RepeatUntil,
		MaxOccurrences: s.opts.MaxOccurrences,
	})
}
