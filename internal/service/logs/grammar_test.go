package logs

import (
	"errors"
	"testing"
	"time"
)

func TestParseLineExtractsFields(t *testing.T) {
	line := `[2024-01-01 10:00:00] production.ERROR: Something failed {"code":500}`
	entry, err := ParseLine(line, "2024-01-01", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Level != "error" {
		t.Fatalf("unexpected level %q", entry.Level)
	}
	if entry.Message != "Something failed" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if code, ok := entry.Context["code"].(float64); !ok || code != 500 {
		t.Fatalf("unexpected context: %v", entry.Context)
	}
	want := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC).Unix()
	if entry.Timestamp != want {
		t.Fatalf("unexpected timestamp %d, want %d", entry.Timestamp, want)
	}
	if entry.Datetime != "2024-01-01 10:00:00" || entry.Date != "2024-01-01" || entry.Raw != line {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestParseLineVariants(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		level   string
		message string
		context int
	}{
		{"no context", `[2024-01-01 10:00:00] local.INFO: Plain message`, "info", "Plain message", 0},
		{"empty level", `[2024-01-01 10:00:00] local.: Levelless`, "info", "Levelless", 0},
		{"malformed json", `[2024-01-01 10:00:00] local.WARNING: Broken {not json}`, "warning", "Broken {not json}", 0},
		{"laravel empty blocks", `[2024-01-01 10:00:00] production.DEBUG: Booted [] []`, "debug", "Booted", 0},
		{"context and extra", `[2024-01-01 10:00:00] production.INFO: Synced {"users":3} []`, "info", "Synced", 1},
		{"dotted channel", `[2024-01-01 10:00:00] app.firebase.NOTICE: Dotted {"a":1}`, "notice", "Dotted", 1},
		{"braces in message", `[2024-01-01 10:00:00] local.INFO: Template {name} rendered`, "info", "Template {name} rendered", 0},
		{"braces before context", `[2024-01-01 10:00:00] local.INFO: Loaded {config} {"a":1}`, "info", "Loaded {config}", 1},
		{"json in message", `[2024-01-01 10:00:00] local.INFO: Got {"x":1} back {}`, "info", `Got {"x":1} back`, 0},
		{"nested context braces", `[2024-01-01 10:00:00] local.INFO: Nested {"a":{"b":"c {d}"}}`, "info", "Nested", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := ParseLine(tc.line, "2024-01-01", time.UTC)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.Level != tc.level || entry.Message != tc.message {
				t.Fatalf("got level=%q message=%q", entry.Level, entry.Message)
			}
			if entry.Context == nil || len(entry.Context) != tc.context {
				t.Fatalf("unexpected context %v", entry.Context)
			}
		})
	}
}

func TestParseLineRejectsNonMatchingLine(t *testing.T) {
	for _, line := range []string{
		"Stack trace:",
		"#0 /var/www/app.php(12): call()",
		"[2024-01-01 10:00:00] missing level separator",
	} {
		if _, err := ParseLine(line, "2024-01-01", time.UTC); !errors.Is(err, errNoMatch) {
			t.Fatalf("expected errNoMatch for %q, got %v", line, err)
		}
	}
}

func TestParseLineRejectsUnreadableDatetime(t *testing.T) {
	_, err := ParseLine("[yesterday-ish] local.INFO: hello", "2024-01-01", time.UTC)
	if !errors.Is(err, errBadTimestamp) {
		t.Fatalf("expected errBadTimestamp, got %v", err)
	}
}

func TestParseLineZonedDatetime(t *testing.T) {
	entry, err := ParseLine(`[2024-01-01T10:00:00.123456+02:00] production.INFO: zoned`, "2024-01-01", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC).Unix()
	if entry.Timestamp != want {
		t.Fatalf("unexpected timestamp %d, want %d", entry.Timestamp, want)
	}
}

func TestFormatLineRoundTrips(t *testing.T) {
	at := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
	line, err := FormatLine(at, "production", "info", "multi\nline", map[string]any{"uid": "abc"})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := `[2024-03-04 05:06:07] production.INFO: multi line {"uid":"abc"}`
	if line != want {
		t.Fatalf("unexpected line\n got: %s\nwant: %s", line, want)
	}
	entry, err := ParseLine(line, "2024-03-04", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entry.Message != "multi line" || entry.Context["uid"] != "abc" || entry.Timestamp != at.Unix() {
		t.Fatalf("round trip mismatch: %+v", entry)
	}
}

func TestFormatLineWritesEmptyContext(t *testing.T) {
	at := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
	line, err := FormatLine(at, "local", "info", "bare", nil)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if line != "[2024-03-04 05:06:07] local.INFO: bare {}" {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestFormatLineRoundTripsBracedMessages(t *testing.T) {
	at := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
	cases := []struct {
		message string
		context map[string]any
	}{
		{"Loaded {config}", nil},
		{"Rendered {name} for user", map[string]any{"uid": "abc"}},
		{`Payload {"uid":"abc"} rejected`, nil},
		{`Payload {"uid":"abc"}`, map[string]any{"attempt": "2"}},
		{"Trailing block []", nil},
		{"{", map[string]any{"k": "}"}},
	}
	for _, tc := range cases {
		line, err := FormatLine(at, "production", "info", tc.message, tc.context)
		if err != nil {
			t.Fatalf("format %q: %v", tc.message, err)
		}
		entry, err := ParseLine(line, "2024-03-04", time.UTC)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if entry.Message != tc.message {
			t.Fatalf("message mismatch for %q: got %q", line, entry.Message)
		}
		if len(entry.Context) != len(tc.context) {
			t.Fatalf("context mismatch for %q: got %v", line, entry.Context)
		}
		for k, v := range tc.context {
			if entry.Context[k] != v {
				t.Fatalf("context %q mismatch for %q: got %v", k, line, entry.Context[k])
			}
		}
	}
}
