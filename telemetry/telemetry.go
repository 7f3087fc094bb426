// Package telemetry collects first-party usage analytics (page views) and
// performance timing (web vitals) from the two collector scripts the layout
// mounts. Visitor identity is never stored: IPs are hashed with a
// per-installation salt.
package telemetry

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Salt is the per-installation secret mixed into every hash.
type Salt string

const saltKey = "hash_salt"

// LoadSalt reads the installation salt, generating and storing one on first
// use.
func LoadSalt(ctx context.Context, s *Store) (Salt, error) {
	v, err := s.GetSetting(ctx, saltKey)
	if err != nil {
		return "", fmt.Errorf("read hash salt: %w", err)
	}
	if v != "" {
		return Salt(v), nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	v = hex.EncodeToString(b)
	if err := s.SetSetting(ctx, saltKey, v); err != nil {
		return "", fmt.Errorf("store hash salt: %w", err)
	}
	return Salt(v), nil
}

func (s Salt) sum(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(s))
	h.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashIP returns a salted hash of an IP address.
func (s Salt) HashIP(ip string) string {
	return s.sum(ip)
}

// VisitorID returns a salted visitor id from IP and User-Agent.
func (s Salt) VisitorID(ip, userAgent string) string {
	return s.sum(ip, userAgent)
}

// SessionID derives a session id from a visitor id and the UTC day.
func (s Salt) SessionID(visitorID string, now time.Time) string {
	return s.sum(visitorID, now.UTC().Format("2006-01-02"))
}

// PageView is one recorded page view.
type PageView struct {
	ID         int64
	VisitorID  string
	SessionID  string
	IPHash     string
	Browser    string
	OS         string
	Device     string
	Path       string
	Referrer   string
	ScreenSize string
	Bot        string // bot name, empty for humans
	Timestamp  time.Time
}

// Vital is one performance timing sample.
type Vital struct {
	ID        int64
	VisitorID string
	Path      string
	Metric    string // LCP, FCP, CLS, INP, TTFB or FID
	Value     float64
	Rating    string // good, needs-improvement, poor
	Timestamp time.Time
}

// ParseUserAgent extracts browser, OS and device from a User-Agent string.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// More specific engines first: Edge and Opera also advertise Chrome.
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	// Android UAs contain "linux".
	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	// iPad UAs contain "mobile".
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return
}

// knownBots maps UA fragments to display names, most specific first.
var knownBots = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"duckduckbot", "DuckDuckBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"mj12bot", "Majestic"},
	{"dotbot", "Moz"},
	{"gptbot", "GPTBot"},
	{"slurp", "Yahoo Slurp"},
	{"crawler", "Generic Crawler"},
	{"spider", "Generic Spider"},
	{"crawl", "Generic Crawler"},
	{"scrape", "Scraper"},
}

// BotName returns the bot's display name, or "" when ua looks human.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	for _, b := range knownBots {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	if strings.Contains(ua, "bot") {
		return "Other Bot"
	}
	return ""
}

// IsBot reports whether ua is likely a crawler.
func IsBot(ua string) bool {
	return BotName(ua) != ""
}

var referrerDomainRegex = regexp.MustCompile(`^https?://(?:www\.)?([^/:]+)`)

// CleanReferrer reduces a referrer URL to a source name.
func CleanReferrer(ref string) string {
	if ref == "" {
		return "Direct"
	}
	lower := strings.ToLower(ref)
	for _, se := range []struct{ needle, name string }{
		{"google.", "Google"},
		{"bing.", "Bing"},
		{"duckduckgo.", "DuckDuckGo"},
		{"yahoo.", "Yahoo"},
		{"github.", "GitHub"},
		{"linkedin.", "LinkedIn"},
	} {
		if strings.Contains(lower, se.needle) {
			return se.name
		}
	}
	if m := referrerDomainRegex.FindStringSubmatch(ref); len(m) > 1 {
		return m[1]
	}
	return "Other"
}

// RateVital classifies a metric value with the published web-vitals
// thresholds.
func RateVital(metric string, value float64) string {
	var good, poor float64
	switch metric {
	case "LCP":
		good, poor = 2500, 4000
	case "FCP":
		good, poor = 1800, 3000
	case "CLS":
		good, poor = 0.1, 0.25
	case "INP":
		good, poor = 200, 500
	case "TTFB":
		good, poor = 800, 1800
	case "FID":
		good, poor = 100, 300
	default:
		return ""
	}
	switch {
	case value <= good:
		return "good"
	case value <= poor:
		return "needs-improvement"
	default:
		return "poor"
	}
}
