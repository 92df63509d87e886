package config

import (
	"testing"
	"time"
)

func TestLoadAPIConfigDefaults(t *testing.T) {
	cfg := LoadAPIConfig()
	if cfg.LogChannelName != "firebase" {
		t.Fatalf("unexpected channel name %q", cfg.LogChannelName)
	}
	if cfg.FirebaseTimeout != 10*time.Second {
		t.Fatalf("unexpected firebase timeout %s", cfg.FirebaseTimeout)
	}
	if cfg.FirebaseMaxUsers != 1000 {
		t.Fatalf("unexpected max users %d", cfg.FirebaseMaxUsers)
	}
}

func TestLoadAPIConfigFromEnvironment(t *testing.T) {
	t.Setenv("LOG_DIR", " /var/log/madinia ")
	t.Setenv("LOG_CHANNEL_DAYS", "3")
	t.Setenv("ALLOW_SIGNUP", "true")
	t.Setenv("FIREBASE_TIMEOUT_SECONDS", "not-a-number")

	cfg := LoadAPIConfig()
	if cfg.LogDir != "/var/log/madinia" {
		t.Fatalf("expected trimmed log dir, got %q", cfg.LogDir)
	}
	if cfg.LogChannelDays != 3 {
		t.Fatalf("expected 3 retention days, got %d", cfg.LogChannelDays)
	}
	if !cfg.AllowSignup {
		t.Fatalf("expected signup enabled")
	}
	if cfg.FirebaseTimeout != 10*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.FirebaseTimeout)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := APIConfig{Timezone: "Mars/Olympus_Mons"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
}
