package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	rl := newMemoryRateLimiter(func() time.Time { return now })
	defer rl.Close()

	for i := 1; i <= 2; i++ {
		if d := rl.Allow("ip:1.2.3.4", 2, time.Minute); !d.allowed || d.count != i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}
	if d := rl.Allow("ip:1.2.3.4", 2, time.Minute); d.allowed {
		t.Fatalf("expected third request to be limited")
	}
	if d := rl.Allow("ip:5.6.7.8", 2, time.Minute); !d.allowed {
		t.Fatalf("expected other key to be allowed")
	}

	now = now.Add(time.Minute + time.Second)
	if d := rl.Allow("ip:1.2.3.4", 2, time.Minute); !d.allowed || d.count != 1 {
		t.Fatalf("expected new window, got %+v", d)
	}

	rl.cleanup(now.Add(2 * time.Minute))
	if len(rl.entries) != 0 {
		t.Fatalf("expected cleanup to drop expired windows, got %d", len(rl.entries))
	}
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)

	var last *httptest.ResponseRecorder
	for i := 0; i <= rateLimitLogin; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		last = httptest.NewRecorder()
		env.router.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after %d attempts, got %d", rateLimitLogin, last.Code)
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected remaining header 0, got %q", last.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateMetricKey(t *testing.T) {
	cases := map[string]string{
		"ip:1.2.3.4":    "ip",
		"operator:op-1": "operator",
		"":              "unknown",
	}
	for key, want := range cases {
		if got := rateMetricKey(key); got != want {
			t.Fatalf("rateMetricKey(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	if token, err := bearerToken("Bearer abc"); err != nil || token != "abc" {
		t.Fatalf("unexpected result %q, %v", token, err)
	}
	for _, header := range []string{"", "abc", "Basic abc", "Bearer"} {
		if _, err := bearerToken(header); err == nil {
			t.Fatalf("expected error for %q", header)
		}
	}
}
