package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/telemetry"
)

type memSaver struct {
	posts []content.Post
}

func (m *memSaver) SavePost(ctx context.Context, p content.Post) error {
	m.posts = append(m.posts, p)
	return nil
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 80, B: 160, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSeedPosts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	writePNG(t, filepath.Join(dir, "images", "Cover Shot.png"))
	imageDir := filepath.Join(dir, "out")

	doc := `posts:
  - title: Building RAG Pipelines
    category: Generative AI
    tags: [llm, retrieval]
    published_at: 2024-03-05T10:00:00Z
    read_time: 6
    image: images/Cover Shot.png
    excerpt: Notes from production.
    body: |
      First paragraph.
  - title: Untitled draft
    slug: draft
    read_time: 0
`
	saver := &memSaver{}
	n, err := seedPosts(context.Background(), saver, strings.NewReader(doc), dir, imageDir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, saver.posts, 2)

	first := saver.posts[0]
	assert.Equal(t, "building-rag-pipelines", first.Slug)
	assert.Equal(t, "Generative AI", *first.Category)
	assert.Equal(t, []string{"llm", "retrieval"}, first.Tags)
	assert.Equal(t, 6, *first.ReadTime)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, first.FeaturedImage)
	assert.FileExists(t, filepath.Join(imageDir, first.FeaturedImage.Asset))

	second := saver.posts[1]
	assert.Equal(t, "draft", second.Slug)
	assert.Nil(t, second.ReadTime)
	assert.Nil(t, second.Excerpt)
	assert.Nil(t, second.PublishedAt)
	assert.Nil(t, second.FeaturedImage)
}

func TestSeedPostsMissingImage(t *testing.T) {
	doc := "posts:\n  - title: A\n    image: nope.png\n"
	_, err := seedPosts(context.Background(), &memSaver{}, strings.NewReader(doc), t.TempDir(), t.TempDir())
	assert.Error(t, err)
}

func TestPrintPosts(t *testing.T) {
	published := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, printPosts(&buf, []content.PostSummary{
		{Title: "Hello", Slug: "hello", PublishedAt: &published, Tags: []string{"go", "ai"}},
		{Title: "No slug"},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SLUG")
	assert.Contains(t, lines[1], "2024-03-05")
	assert.Contains(t, lines[1], "go,ai")
	assert.True(t, strings.HasPrefix(lines[2], "-"))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	sum := &telemetry.Summary{
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Views:    12,
		TopPages: []telemetry.PageStat{{Name: "/", Count: 9}},
		Vitals:   []telemetry.VitalSample{{Metric: "LCP", P75: 2100, Rating: "good", Samples: 4}},
	}
	require.NoError(t, printSummary(&buf, sum))
	out := buf.String()
	assert.Contains(t, out, "2024-03-01 to 2024-03-31")
	assert.Contains(t, out, "2100.00")
	assert.Contains(t, out, "good")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "folio dev\n", buf.String())
}
