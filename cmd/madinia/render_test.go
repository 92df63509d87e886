package main

import (
	"bytes"
	"strings"
	"testing"

	apiclient "github.com/steeven-js/madinia-cyber/pkg/api/client"
)

func TestRenderEntryIncludesFields(t *testing.T) {
	line := renderEntry(apiclient.LogEntry{
		Datetime: "2024-01-10 08:15:00",
		Level:    "error",
		Message:  "Something failed",
		Context:  map[string]any{"user_id": 42},
	})
	for _, want := range []string{"2024-01-10 08:15:00", "ERROR", "Something failed", `{"user_id":42}`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestRenderEntryOmitsEmptyContext(t *testing.T) {
	line := renderEntry(apiclient.LogEntry{Datetime: "2024-01-10 08:15:00", Level: "info", Message: "ok", Context: map[string]any{}})
	if strings.Contains(line, "{}") {
		t.Fatalf("expected no context block in %q", line)
	}
}

func TestPrintUsers(t *testing.T) {
	role := "admin"
	email := "ops@madinia.fr"
	users := []apiclient.User{{UID: "u1", Email: &email, Role: &role}, {UID: "u2", Disabled: true}}

	var buf bytes.Buffer
	printUsers(&buf, users)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if lines[0] != "u1\tops@madinia.fr\tadmin\tactive\tnever" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "u2\t-\t-\tdisabled\tnever" {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}
