package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua                  string
		browser, os, device string
	}{
		{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"Chrome", "Windows", "Desktop",
		},
		{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 Edg/120.0",
			"Edge", "Windows", "Desktop",
		},
		{
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"Safari", "iOS", "Mobile",
		},
		{
			"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"Safari", "iOS", "Tablet",
		},
		{
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
			"Chrome", "Android", "Mobile",
		},
		{
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			"Firefox", "Linux", "Desktop",
		},
		{"", "Other", "Other", "Desktop"},
	}
	for _, tt := range tests {
		b, o, d := ParseUserAgent(tt.ua)
		if b != tt.browser || o != tt.os || d != tt.device {
			t.Errorf("ParseUserAgent(%q) = %s/%s/%s, want %s/%s/%s", tt.ua, b, o, d, tt.browser, tt.os, tt.device)
		}
	}
}

func TestBotName(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "Googlebot"},
		{"Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; GPTBot/1.0)", "GPTBot"},
		{"facebookexternalhit/1.1", "Facebook"},
		{"SomeCustomBot/1.0", "Other Bot"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", ""},
	}
	for _, tt := range tests {
		if got := BotName(tt.ua); got != tt.want {
			t.Errorf("BotName(%q) = %q, want %q", tt.ua, got, tt.want)
		}
		if IsBot(tt.ua) != (tt.want != "") {
			t.Errorf("IsBot(%q) mismatch", tt.ua)
		}
	}
}

func TestCleanReferrer(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "Direct"},
		{"https://www.google.com/search?q=x", "Google"},
		{"https://github.com/someone", "GitHub"},
		{"https://www.example.org/page", "example.org"},
		{"https://blog.example.org:8443/x", "blog.example.org"},
		{"not a url", "Other"},
	}
	for _, tt := range tests {
		if got := CleanReferrer(tt.in); got != tt.want {
			t.Errorf("CleanReferrer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateVital(t *testing.T) {
	tests := []struct {
		metric string
		value  float64
		want   string
	}{
		{"LCP", 2000, "good"},
		{"LCP", 2500, "good"},
		{"LCP", 3000, "needs-improvement"},
		{"LCP", 5000, "poor"},
		{"CLS", 0.05, "good"},
		{"CLS", 0.3, "poor"},
		{"INP", 350, "needs-improvement"},
		{"BOGUS", 1, ""},
	}
	for _, tt := range tests {
		if got := RateVital(tt.metric, tt.value); got != tt.want {
			t.Errorf("RateVital(%s, %v) = %q, want %q", tt.metric, tt.value, got, tt.want)
		}
	}
}

func TestLoadSaltIsStable(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	first, err := LoadSalt(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 64 {
		t.Errorf("salt length = %d, want 64", len(first))
	}
	second, err := LoadSalt(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("salt changed between loads")
	}
}

func TestSaltHashing(t *testing.T) {
	a, b := Salt("a"), Salt("b")
	if a.HashIP("1.2.3.4") == b.HashIP("1.2.3.4") {
		t.Error("different salts produced the same hash")
	}
	if a.HashIP("1.2.3.4") != a.HashIP("1.2.3.4") {
		t.Error("hash is not deterministic")
	}
	if len(a.HashIP("1.2.3.4")) != 16 {
		t.Error("hash should be 16 hex chars")
	}
	v := a.VisitorID("1.2.3.4", "ua")
	day1 := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	if a.SessionID(v, day1) != a.SessionID(v, day1.Add(time.Hour)) {
		t.Error("session id should be stable within a day")
	}
	if a.SessionID(v, day1) == a.SessionID(v, day1.AddDate(0, 0, 1)) {
		t.Error("session id should change across days")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("ip") || !rl.allow("ip") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("ip") {
		t.Error("third request within window should be rejected")
	}
	if !rl.allow("other") {
		t.Error("limit is per key")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("ip") {
		t.Error("request after window should pass")
	}

	rl.sweep()
	rl.Stop() // idempotent
}
