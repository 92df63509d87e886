package logs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func writeLogFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestGetLogsParsesDatedFile(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "firebase-2024-01-01.log",
		`[2024-01-01 10:00:00] production.ERROR: Something failed {"code":500}`)

	now := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)))

	entries, err := svc.GetLogs(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != "error" || entry.Message != "Something failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if code, ok := entry.Context["code"].(float64); !ok || code != 500 {
		t.Fatalf("unexpected context: %v", entry.Context)
	}
	if entry.Date != "2024-01-01" {
		t.Fatalf("unexpected date %q", entry.Date)
	}
}

func TestGetLogsExcludesFilesOutsideWindow(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "firebase-2024-01-01.log",
		`[2024-01-01 10:00:00] production.INFO: old but valid`)
	writeLogFile(t, dir, "firebase-2024-01-09.log",
		`[2024-01-09 08:00:00] production.INFO: yesterday`)
	writeLogFile(t, dir, "firebase-2024-01-11.log",
		`[2024-01-11 08:00:00] production.INFO: tomorrow`)

	now := time.Date(2024, time.January, 10, 15, 0, 0, 0, time.UTC)
	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)))

	entries, err := svc.GetLogs(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "yesterday" {
		t.Fatalf("expected only yesterday's entry, got %+v", entries)
	}
	limit := time.Date(2024, time.January, 9, 0, 0, 0, 0, time.UTC).Format(dateLayout)
	for _, entry := range entries {
		if entry.Date < limit {
			t.Fatalf("entry dated %s is before window start %s", entry.Date, limit)
		}
	}
}

func TestGetLogsUndatedFileUsesModTime(t *testing.T) {
	dir := t.TempDir()
	recent := writeLogFile(t, dir, "firebase.log",
		`[2024-01-10 07:00:00] production.INFO: from single file`)
	stale := writeLogFile(t, dir, "firebase-archive.log",
		`[2023-12-01 07:00:00] production.INFO: from stale file`)

	now := time.Date(2024, time.January, 10, 15, 0, 0, 0, time.UTC)
	mtime := time.Date(2024, time.January, 10, 7, 0, 0, 0, time.UTC)
	if err := os.Chtimes(recent, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	old := time.Date(2023, time.December, 1, 7, 0, 0, 0, time.UTC)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)))
	entries, err := svc.GetLogs(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "from single file" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Date != "2024-01-10" {
		t.Fatalf("expected mtime-derived date, got %q", entries[0].Date)
	}
}

func TestGetLogsSortsNewestFirstAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "firebase-2024-01-08.log",
		`[2024-01-08 09:00:00] production.INFO: a`,
		`[2024-01-08 23:00:00] production.INFO: b`)
	writeLogFile(t, dir, "firebase-2024-01-09.log",
		`[2024-01-09 01:00:00] production.INFO: c`,
		`[2024-01-09 00:30:00] production.INFO: d`)

	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)))

	entries, err := svc.GetLogs(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	var order []string
	for i, entry := range entries {
		order = append(order, entry.Message)
		if i > 0 && entries[i-1].Timestamp < entry.Timestamp {
			t.Fatalf("entries not sorted descending at %d", i)
		}
	}
	if strings.Join(order, "") != "cdba" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestGetLogsSkipsBadLinesWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "firebase-2024-01-09.log",
		`garbage that matches nothing`,
		`[not a date] production.INFO: unreadable datetime`,
		`[2024-01-09 10:00:00] production.WARNING: bad context {oops}`,
		``,
		`[2024-01-09 11:00:00] production.INFO: still parsed`)

	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)))

	entries, err := svc.GetLogs(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Message != "still parsed" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Message != "bad context" || len(entries[1].Context) != 0 {
		t.Fatalf("expected empty context for malformed json, got %+v", entries[1])
	}
}

func TestGetLogsIgnoresOtherChannels(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "laravel-2024-01-09.log", `[2024-01-09 10:00:00] production.INFO: other channel`)
	writeLogFile(t, dir, "firebase-2024-01-09.txt", `[2024-01-09 10:00:00] production.INFO: wrong suffix`)

	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)))

	entries, err := svc.GetLogs(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
}

func TestGetLogsMissingDirectoryIsEmpty(t *testing.T) {
	svc := New(filepath.Join(t.TempDir(), "absent"), "firebase", nil, newLogger())
	entries, err := svc.GetLogs(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestGetLogsRejectsNonPositiveDays(t *testing.T) {
	svc := New(t.TempDir(), "firebase", nil, newLogger())
	for _, days := range []int{0, -3} {
		if _, err := svc.GetLogs(context.Background(), days); !errors.Is(err, ErrInvalidDays) {
			t.Fatalf("expected ErrInvalidDays for %d, got %v", days, err)
		}
	}
}

func TestGetLogsHonoursLocation(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "firebase-2024-01-09.log", `[2024-01-09 10:00:00] production.INFO: local time`)

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	now := time.Date(2024, time.January, 9, 23, 30, 0, 0, time.UTC) // 00:30 on the 10th in Paris
	svc := New(dir, "firebase", nil, newLogger(), WithClock(fixedClock(now)), WithLocation(paris))

	entries, err := svc.GetLogs(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC).Unix()
	if entries[0].Timestamp != want {
		t.Fatalf("expected datetime read in Paris time, got %d want %d", entries[0].Timestamp, want)
	}
}

type recordingChannel struct {
	messages []string
	err      error
	panicMsg string
}

func (c *recordingChannel) Write(message string, context map[string]any) error {
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	c.messages = append(c.messages, message)
	return c.err
}

func TestLogWritesToChannel(t *testing.T) {
	ch := &recordingChannel{}
	svc := New(t.TempDir(), "firebase", ch, newLogger())
	svc.Log("role assigned", map[string]any{"uid": "abc"})
	if len(ch.messages) != 1 || ch.messages[0] != "role assigned" {
		t.Fatalf("unexpected channel writes: %v", ch.messages)
	}
}

func TestLogSwallowsChannelFailures(t *testing.T) {
	svc := New(t.TempDir(), "firebase", &recordingChannel{err: errors.New("disk full")}, newLogger())
	svc.Log("ignored", nil)

	svc = New(t.TempDir(), "firebase", &recordingChannel{panicMsg: "boom"}, newLogger())
	svc.Log("ignored", nil)

	svc = New(t.TempDir(), "firebase", nil, newLogger())
	svc.Log("ignored", nil)
}
