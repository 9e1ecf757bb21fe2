// Package reminder delivers due work-item reminders on a cron schedule.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
)

// DefaultSpec checks for due reminders every minute.
const DefaultSpec = "* * * * *"

// Store is the subset of persistence the dispatcher uses.
type Store interface {
	DueReminders(ctx context.Context, at time.Time) ([]model.Reminder, error)
	MarkReminderSent(ctx context.Context, workItemID string, at time.Time) error
	GetWorkItem(ctx context.Context, id string) (model.WorkItem, error)
}

// Notifier delivers one reminder. Delivery transport (mail, chat, ...) is
// the host application's concern.
type Notifier interface {
	Notify(ctx context.Context, wi model.WorkItem, r model.Reminder) error
}

// LogNotifier writes reminders to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, wi model.WorkItem, r model.Reminder) error {
	appLog.Info("reminder due",
		"work_item", wi.ID,
		"title", wi.Title,
		"assignee", wi.Assignee,
		"at", r.At.Format(time.RFC3339),
	)
	return nil
}

// Dispatcher runs RunOnce on a cron schedule.
type Dispatcher struct {
	store    Store
	notifier Notifier
	spec     string
	loc      *time.Location
	now      func() time.Time

	mu   sync.Mutex // serializes ticks
	cron *cron.Cron
}

// New builds a Dispatcher. An empty spec uses DefaultSpec, a nil notifier
// uses LogNotifier, a nil location uses time.Local.
func New(store Store, notifier Notifier, spec string, loc *time.Location) (*Dispatcher, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		spec:     spec,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Start registers the tick and starts the scheduler. Ticks stop when ctx
// is canceled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(d.loc))
	_, err := c.AddFunc(d.spec, func() {
		if _, err := d.RunOnce(ctx, d.now()); err != nil {
			appLog.Error("reminder tick failed", err)
		}
	})
	if err != nil {
		return err
	}
	d.cron = c
	c.Start()
	appLog.Info("reminder dispatcher started", "spec", d.spec, "timezone", d.loc.String())

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running tick to finish.
func (d *Dispatcher) Stop() {
	if d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
}

// RunOnce delivers every unsent reminder due at or before now and returns
// how many were delivered. A failed delivery leaves the reminder unsent so
// the next tick retries it.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	due, err := d.store.DueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}

	sent := 0
	var errs []error
	for _, r := range due {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		wi, err := d.store.GetWorkItem(ctx, r.WorkItemID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := d.notifier.Notify(ctx, wi, r); err != nil {
			appLog.Error("reminder delivery failed", err, "work_item", r.WorkItemID, "at", r.At.Format(time.RFC3339))
			errs = append(errs, err)
			continue
		}
		if err := d.store.MarkReminderSent(ctx, r.WorkItemID, r.At); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	if len(due) > 0 {
		appLog.Debug("reminder tick", "due", len(due), "sent", sent)
	}
	return sent, errors.Join(errs...)
}
