// Package store persists work items and their pending reminders in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aerele/taskstream/internal/model"
)

// ErrNotFound is returned when a work item does not exist.
var ErrNotFound = errors.New("not found")

// Timestamps are stored as fixed-width UTC text so they compare correctly
// as strings.
const tsLayout = "2006-01-02T15:04:05Z"

// Store wraps the SQLite handle. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS work_items (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		assignee     TEXT NOT NULL DEFAULT '',
		recurrence   TEXT NOT NULL,
		repeat_until TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminders (
		work_item_id TEXT NOT NULL REFERENCES work_items(id) ON DELETE CASCADE,
		at           TEXT NOT NULL,
		sent         INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (work_item_id, at)
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(sent, at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func formatTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(tsLayout, s)
}

// --- Work items ---

// SaveWorkItem inserts or replaces a work item. CreatedAt is kept from the
// existing row on update and written back to wi; UpdatedAt is set to now.
func (s *Store) SaveWorkItem(ctx context.Context, wi *model.WorkItem) error {
	if wi.ID == "" {
		return errors.New("save work item: empty ID")
	}
	rec, err := json.Marshal(wi.Recurrence)
	if err != nil {
		return fmt.Errorf("marshal recurrence: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if wi.CreatedAt.IsZero() {
		wi.CreatedAt = now
	}
	wi.UpdatedAt = now

	var created string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO work_items (id, title, assignee, recurrence, repeat_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			assignee = excluded.assignee,
			recurrence = excluded.recurrence,
			repeat_until = excluded.repeat_until,
			updated_at = excluded.updated_at
		RETURNING created_at`,
		wi.ID, wi.Title, wi.Assignee, string(rec), formatTS(wi.RepeatUntil),
		formatTS(wi.CreatedAt), formatTS(wi.UpdatedAt),
	).Scan(&created)
	if err != nil {
		return fmt.Errorf("save work item %s: %w", wi.ID, err)
	}
	if wi.CreatedAt, err = parseTS(created); err != nil {
		return fmt.Errorf("save work item %s: created_at: %w", wi.ID, err)
	}
	return nil
}

// GetWorkItem loads one work item by ID.
func (s *Store) GetWorkItem(ctx context.Context, id string) (model.WorkItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, assignee, recurrence, repeat_until, created_at, updated_at
		FROM work_items WHERE id = ?`, id)
	wi, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WorkItem{}, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return wi, err
}

// ListWorkItems returns all work items ordered by creation time.
func (s *Store) ListWorkItems(ctx context.Context) ([]model.WorkItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, assignee, recurrence, repeat_until, created_at, updated_at
		FROM work_items ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkItem
	for rows.Next() {
		wi, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wi)
	}
	return out, rows.Err()
}

// DeleteWorkItem removes a work item and its reminders.
func (s *Store) DeleteWorkItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(sc scanner) (model.WorkItem, error) {
	var (
		wi                      model.WorkItem
		rec                     string
		until, created, updated string
	)
	if err := sc.Scan(&wi.ID, &wi.Title, &wi.Assignee, &rec, &until, &created, &updated); err != nil {
		return wi, err
	}
	if err := json.Unmarshal([]byte(rec), &wi.Recurrence); err != nil {
		return wi, fmt.Errorf("decode recurrence for %s: %w", wi.ID, err)
	}
	var err error
	if wi.RepeatUntil, err = parseTS(until); err != nil {
		return wi, err
	}
	if wi.CreatedAt, err = parseTS(created); err != nil {
		return wi, err
	}
	if wi.UpdatedAt, err = parseTS(updated); err != nil {
		return wi, err
	}
	return wi, nil
}

// --- Reminders ---

// ReplaceReminders swaps the pending reminders of a work item for times.
// Reminders already sent are kept so they are not delivered twice.
func (s *Store) ReplaceReminders(ctx context.Context, workItemID string, times []time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE work_item_id = ? AND sent = 0`, workItemID); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reminders (work_item_id, at, sent) VALUES (?, ?, 0)
		ON CONFLICT(work_item_id, at) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range times {
		if _, err := stmt.ExecContext(ctx, workItemID, formatTS(t)); err != nil {
			return fmt.Errorf("insert reminder: %w", err)
		}
	}
	return tx.Commit()
}

// ListReminders returns every reminder of a work item in time order.
func (s *Store) ListReminders(ctx context.Context, workItemID string) ([]model.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT work_item_id, at, sent FROM reminders
		WHERE work_item_id = ? ORDER BY at`, workItemID)
}

// DueReminders returns unsent reminders at or before at, oldest first.
func (s *Store) DueReminders(ctx context.Context, at time.Time) ([]model.Reminder, error) {
	return s.queryReminders(ctx, `
		SELECT work_item_id, at, sent FROM reminders
		WHERE sent = 0 AND at <= ? ORDER BY at, work_item_id`, formatTS(at))
}

// MarkReminderSent flags one reminder as delivered.
func (s *Store) MarkReminderSent(ctx context.Context, workItemID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET sent = 1 WHERE work_item_id = ? AND at = ?`,
		workItemID, formatTS(at))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reminder %s@%s: %w", workItemID, formatTS(at), ErrNotFound)
	}
	return nil
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) ([]model.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reminder
	for rows.Next() {
		var (
			r  model.Reminder
			at string
		)
		if err := rows.Scan(&r.WorkItemID, &at, &r.Sent); err != nil {
			return nil, err
		}
		if r.At, err = parseTS(at); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
