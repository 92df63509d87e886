package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFirebaseProviderRequiresCredentials(t *testing.T) {
	if _, err := NewFirebaseProvider(context.Background(), " ", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestReadProjectID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service-account.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account","project_id":"madinia-prod"}`), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}

	id, err := readProjectID(path)
	if err != nil {
		t.Fatalf("readProjectID: %v", err)
	}
	if id != "madinia-prod" {
		t.Fatalf("expected madinia-prod, got %q", id)
	}
}

func TestReadProjectIDMissingFile(t *testing.T) {
	if _, err := readProjectID(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing credentials file")
	}
}

func TestMillisToRFC3339(t *testing.T) {
	if got := millisToRFC3339(0); got != "" {
		t.Fatalf("expected empty for zero, got %q", got)
	}
	if got := millisToRFC3339(1709627400000); got != "2024-03-05T08:30:00Z" {
		t.Fatalf("unexpected conversion %q", got)
	}
}
