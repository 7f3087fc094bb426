package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, src string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, src); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	return buf.String()
}

func TestPlainTextParagraphs(t *testing.T) {
	got := render(t, "First paragraph.\n\nSecond paragraph.")
	if strings.Count(got, "<p>") != 2 {
		t.Errorf("expected two paragraphs, got %q", got)
	}
}

func TestInlineFormatting(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"`code`", "<code>code</code>"},
		{"~~gone~~", "<del>gone</del>"},
	}
	for _, tt := range tests {
		if got := render(t, tt.input); !strings.Contains(got, tt.expected) {
			t.Errorf("render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestCodeBlock(t *testing.T) {
	got := render(t, "```go\nfmt.Println(\"hi\")\n```")
	if !strings.Contains(got, "<pre>") || !strings.Contains(got, `class="language-go"`) {
		t.Errorf("code block = %q", got)
	}
}

func TestHeadingIDs(t *testing.T) {
	got := render(t, "## Getting Started")
	if !strings.Contains(got, `<h2 id="getting-started">`) {
		t.Errorf("heading = %q", got)
	}
}

func TestImagesAreLazy(t *testing.T) {
	got := render(t, "![diagram](/images/diagram.jpg)")
	if !strings.Contains(got, `loading="lazy"`) || !strings.Contains(got, `alt="diagram"`) {
		t.Errorf("image = %q", got)
	}
}

func TestExternalLinks(t *testing.T) {
	got := render(t, "[site](https://example.com)")
	if !strings.Contains(got, "nofollow") {
		t.Errorf("link missing nofollow: %q", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("external link missing target: %q", got)
	}
}

func TestRawHTMLIsNotRendered(t *testing.T) {
	for _, input := range []string{
		"<script>alert(1)</script>",
		"[x](javascript:alert(1))",
		`<img src=x onerror="alert(1)">`,
	} {
		got := render(t, input)
		if strings.Contains(got, "<script") || strings.Contains(got, "javascript:") || strings.Contains(got, "onerror") {
			t.Errorf("render(%q) = %q, unsafe output", input, got)
		}
	}
}

func TestTable(t *testing.T) {
	got := render(t, "| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>1</td>") {
		t.Errorf("table = %q", got)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("hello").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "<p>hello</p>" {
		t.Errorf("component output = %q", buf.String())
	}
}
