package ws

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestSSEClientFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	client := NewSSEClient(rec, rec, "log", slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := client.Send([]byte(`{"level":"info"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := client.Heartbeat(); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	want := "event: log\ndata: {\"level\":\"info\"}\n\n: ping\n\n"
	if got := rec.Body.String(); got != want {
		t.Fatalf("unexpected stream %q", got)
	}
	if !rec.Flushed {
		t.Fatalf("expected flush")
	}
}

func TestSSEClientClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	client := NewSSEClient(rec, rec, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.Close()
	client.Close()

	select {
	case <-client.Done():
	default:
		t.Fatalf("expected done channel to be closed")
	}
	if err := client.Send([]byte("x")); err != io.EOF {
		t.Fatalf("expected io.EOF after close, got %v", err)
	}
}
