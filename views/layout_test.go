package views

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/content"
)

var testSite = Site{
	Name:        "AI Portfolio",
	URL:         "https://example.com",
	Description: "AI Portfolio featuring projects in Generative AI, LLMs, and Computer Vision.",
	Icon:        "/favicon.ico",
	FontsURL:    "https://fonts.googleapis.com/css2?family=Geist&family=Geist+Mono&display=swap",
	Telemetry: Telemetry{
		Enabled:        true,
		ViewEndpoint:   "/api/telemetry/view",
		VitalsEndpoint: "/api/telemetry/vitals",
	},
}

func TestLayoutPassesChildrenUnmodified(t *testing.T) {
	child := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p id="child" data-x="1">raw &amp; unchanged</p>`)
		return err
	})
	_, html := renderDoc(t, Page(testSite, PageMeta{}, child))
	assert.Contains(t, html, `<p id="child" data-x="1">raw &amp; unchanged</p>`)
}

func TestLayoutHead(t *testing.T) {
	doc, html := renderDoc(t, Page(testSite, PageMeta{URL: "https://example.com/"}, templ.NopComponent))

	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "AI Portfolio", doc.Find("title").Text())
	assert.Equal(t, testSite.Description, doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	assert.Equal(t, "/favicon.ico", doc.Find(`link[rel="icon"]`).AttrOr("href", ""))
	assert.Equal(t, "https://example.com/", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	assert.Equal(t, testSite.FontsURL, doc.Find(`link[rel="stylesheet"]`).First().AttrOr("href", ""))

	assert.Contains(t, html, "--font-geist-sans")
	assert.Contains(t, html, "--font-geist-mono")
	assert.Equal(t, "font-geist-sans font-geist-mono antialiased", doc.Find("body").AttrOr("class", ""))
}

func TestLayoutTelemetryCollectors(t *testing.T) {
	doc, _ := renderDoc(t, Page(testSite, PageMeta{}, templ.NopComponent))
	analytics := doc.Find(`body script[src="/public/analytics.js"]`)
	vitals := doc.Find(`body script[src="/public/speed-insights.js"]`)
	require.Equal(t, 1, analytics.Length())
	require.Equal(t, 1, vitals.Length())
	assert.Equal(t, "/api/telemetry/view", analytics.AttrOr("data-endpoint", ""))
	assert.Equal(t, "/api/telemetry/vitals", vitals.AttrOr("data-endpoint", ""))

	off := testSite
	off.Telemetry.Enabled = false
	doc, _ = renderDoc(t, Page(off, PageMeta{}, templ.NopComponent))
	assert.Equal(t, 0, doc.Find(`script[data-endpoint]`).Length())
}

func TestLayoutJSONLD(t *testing.T) {
	post := content.PostSummary{
		Title:    "Hello World",
		Slug:     "hello-world",
		Excerpt:  content.String("</script><b>"),
		Category: content.String("AI"),
		Tags:     []string{"go", "llm"},
	}
	meta := PageMeta{JSONLD: BlogPostingJsonLD(testSite, post, "")}
	doc, _ := renderDoc(t, Page(testSite, meta, templ.NopComponent))

	script := doc.Find(`script[type="application/ld+json"]`)
	require.Equal(t, 1, script.Length())
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(script.Text()), &data))
	assert.Equal(t, "BlogPosting", data["@type"])
	assert.Equal(t, "https://example.com/blog/hello-world", data["url"])
	assert.Equal(t, "</script><b>", data["description"])
	assert.Equal(t, "go, llm", data["keywords"])
}

func TestHomeComposition(t *testing.T) {
	cards, err := NewCards([]content.PostSummary{fullPost()}, stubImages{})
	require.NoError(t, err)
	fallback := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="suspense-chat" data-suspense-state="pending"><div>Loading...</div></div>`)
		return err
	})
	sb := Sidebar{Title: "Chat", State: SidebarCollapsed, CSRF: "tok", Content: fallback}
	doc, _ := renderDoc(t, Home(testSite, PageMeta{}, sb, BlogSection(cards)))

	aside := doc.Find("aside.sidebar")
	require.Equal(t, 1, aside.Length())
	assert.Equal(t, "collapsed", aside.AttrOr("data-state", ""))
	assert.Equal(t, "Loading...", aside.Find("#suspense-chat").Text())

	form := aside.Find("form.sidebar__rail")
	assert.Equal(t, "/sidebar/toggle", form.AttrOr("action", ""))
	assert.Equal(t, "tok", form.Find(`input[name="_csrf"]`).AttrOr("value", ""))
	assert.Equal(t, "Expand sidebar", form.Find("button").AttrOr("aria-label", ""))

	assert.Equal(t, 1, doc.Find("main section#blog article.post-card").Length())
}

func TestPostPage(t *testing.T) {
	c, err := NewCard(0, fullPost(), stubImages{})
	require.NoError(t, err)
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>One.</p><p>Two.</p>")
		return err
	})
	detail := PostDetail{Card: c, Body: body, HeroURL: "https://img.test/hero.jpg"}
	doc, _ := renderDoc(t, PostPage(testSite, PageMeta{Title: "Hello World"}, Sidebar{}, detail))

	assert.Equal(t, "Hello World", doc.Find("h1.post__title").Text())
	assert.Equal(t, 2, doc.Find(".post__body p").Length())
	assert.Equal(t, "/#blog", doc.Find("a.post__back").AttrOr("href", ""))
	assert.Equal(t, "https://img.test/hero.jpg", doc.Find("img.post__image").AttrOr("src", ""))
	assert.Equal(t, "March 5, 2024", doc.Find(".post__meta time").Text())
}

func TestErrorPages(t *testing.T) {
	doc, _ := renderDoc(t, NotFound(testSite))
	assert.Equal(t, "404", doc.Find(".error-page__code").Text())
	assert.Equal(t, "Page not found | AI Portfolio", doc.Find("title").Text())

	doc, _ = renderDoc(t, ServerError(testSite))
	assert.Equal(t, "500", doc.Find(".error-page__code").Text())
}
