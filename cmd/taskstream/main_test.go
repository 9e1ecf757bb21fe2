package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monthlyYAML = `
frequency: 2
type: Monthly
monthly_basis: Date
month_dates:
  - value: 10
  - value: -1
times:
  - value: 9
`

const weeklyJSON = `{"type":"Weekly","weekdays":["Monday"],"times":[{"value":9}]}`

const reviewICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:once\r\n" +
	"DTSTART:20250110T090000Z\r\n" +
	"SUMMARY:One off\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review\r\n" +
	"DTSTART:20250103T150000Z\r\n" +
	"SUMMARY:Review\r\n" +
	"RRULE:FREQ=MONTHLY;BYDAY=1FR;COUNT=3\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDescribeYAML(t *testing.T) {
	path := writeFile(t, "monthly.yaml", monthlyYAML)
	out, err := run(t, "", "describe", path)
	require.NoError(t, err)
	assert.Equal(t, "Every 2 months on -1, 10 at 9:00 hrs\n", out)
}

func TestDescribeStdinJSON(t *testing.T) {
	out, err := run(t, weeklyJSON, "describe", "--json", "-")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{
		"weekday":   "Every 1 week on Monday at 9:00 hrs",
		"frequency": "",
	}, got)
}

func TestDescribeMissingFile(t *testing.T) {
	_, err := run(t, "", "describe", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRRule(t *testing.T) {
	out, err := run(t, weeklyJSON, "rrule", "--until", "2025-03-31", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "RRULE:"), out)
	assert.Contains(t, out, "FREQ=WEEKLY")
	assert.Contains(t, out, "BYDAY=MO")
	assert.Contains(t, out, "UNTIL=20250331T235959Z")
}

func TestRRuleRejectsInvalidConfig(t *testing.T) {
	_, err := run(t, `{"type":"Weekly","weekdays":["Funday"],"times":[{"value":9}]}`, "rrule", "-")
	assert.Error(t, err)
}

func TestReminders(t *testing.T) {
	out, err := run(t, weeklyJSON,
		"reminders", "--timezone", "UTC", "--from", "2025-01-01", "--until", "2025-01-20", "-")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-01-06T09:00:00Z",
		"2025-01-13T09:00:00Z",
		"2025-01-20T09:00:00Z",
	}, strings.Fields(out))
}

func TestRemindersRequiresUntil(t *testing.T) {
	_, err := run(t, weeklyJSON, "reminders", "-")
	assert.Error(t, err)
}

func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, "config.yaml", strings.Join([]string{
		"listen: 127.0.0.1:0",
		"timezone: UTC",
		"database: " + filepath.Join(dir, "taskstream.db"),
		"feed_cache_dir: " + filepath.Join(dir, "cache"),
		"log_level: error",
		"",
	}, "\n"))
}

func TestImportDryRun(t *testing.T) {
	cfg := testConfig(t)
	feed := writeFile(t, "feed.ics", reviewICS)

	out, err := run(t, "", "--config", cfg, "import", "--dry-run", feed)
	require.NoError(t, err)
	assert.Equal(t, "review\tReview\n", out)
}

func TestImportSaves(t *testing.T) {
	cfg := testConfig(t)
	feed := writeFile(t, "feed.ics", reviewICS)

	out, err := run(t, "", "--config", cfg, "import", feed)
	require.NoError(t, err)
	assert.Equal(t, "review\tReview\tEvery 1 month on First Friday at 15:00 hrs\n", out)
}

func TestServeStopsOnCanceledContext(t *testing.T) {
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"--config", cfg, "serve"})
	require.NoError(t, root.ExecuteContext(ctx))
}
