package views

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Layout is the page shell: document head, global font tokens, the two
// telemetry collectors, and the children passed through templ.WithChildren,
// written out unmodified.
func Layout(site Site, meta PageMeta) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		title := meta.Title
		if title == "" {
			title = site.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		fonts := site.Fonts
		if len(fonts) == 0 {
			fonts = DefaultFonts
		}

		buf.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
		buf.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		buf.WriteString(`<title>`)
		text(buf, title)
		buf.WriteString(`</title>`)
		if desc != "" {
			buf.WriteString(`<meta name="description"`)
			attr(buf, "content", desc)
			buf.WriteString(`>`)
		}
		if site.Icon != "" {
			buf.WriteString(`<link rel="icon"`)
			urlAttr(buf, "href", site.Icon)
			buf.WriteString(`>`)
		}
		writeOpenGraph(buf, site, meta, title, desc)

		if site.FontsURL != "" {
			buf.WriteString(`<link rel="preconnect" href="https://fonts.googleapis.com">`)
			buf.WriteString(`<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>`)
			buf.WriteString(`<link rel="stylesheet"`)
			urlAttr(buf, "href", site.FontsURL)
			buf.WriteString(`>`)
		}
		buf.WriteString(`<style>`)
		for _, f := range fonts {
			buf.WriteString(`.`)
			buf.WriteString(cssValue(f.Class))
			buf.WriteString(`{`)
			buf.WriteString(cssValue(f.Variable))
			buf.WriteString(`:`)
			buf.WriteString(cssValue(f.Family))
			buf.WriteString(`}`)
		}
		buf.WriteString(`</style>`)
		buf.WriteString(`<link rel="stylesheet" href="/public/folio.css">`)
		buf.WriteString(`<script src="/public/suspense.js" defer></script>`)
		if meta.JSONLD != "" {
			buf.WriteString(`<script type="application/ld+json">`)
			buf.WriteString(meta.JSONLD)
			buf.WriteString(`</script>`)
		}
		buf.WriteString(`</head>`)

		classes := make([]string, 0, len(fonts)+1)
		for _, f := range fonts {
			classes = append(classes, f.Class)
		}
		classes = append(classes, "antialiased")
		buf.WriteString(`<body`)
		attr(buf, "class", strings.Join(classes, " "))
		buf.WriteString(`>`)

		if site.Telemetry.Enabled {
			writeCollector(buf, "/public/analytics.js", site.Telemetry.ViewEndpoint)
			writeCollector(buf, "/public/speed-insights.js", site.Telemetry.VitalsEndpoint)
		}

		if err := templ.GetChildren(ctx).Render(templ.ClearChildren(ctx), buf); err != nil {
			return err
		}
		buf.WriteString(`</body></html>`)
		return nil
	})
}

// Page renders body inside Layout.
func Page(site Site, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(site, meta).Render(templ.WithChildren(ctx, body), w)
	})
}

func writeCollector(buf *bytes.Buffer, src, endpoint string) {
	if endpoint == "" {
		return
	}
	buf.WriteString(`<script defer`)
	attr(buf, "src", src)
	attr(buf, "data-endpoint", endpoint)
	buf.WriteString(`></script>`)
}

func writeOpenGraph(buf *bytes.Buffer, site Site, meta PageMeta, title, desc string) {
	if meta.URL != "" {
		buf.WriteString(`<link rel="canonical"`)
		urlAttr(buf, "href", meta.URL)
		buf.WriteString(`>`)
	}
	og := [][2]string{
		{"og:title", title},
		{"og:description", desc},
		{"og:type", meta.OGType},
		{"og:url", meta.URL},
		{"og:image", meta.Image},
		{"og:site_name", site.Name},
	}
	for _, kv := range og {
		if kv[1] == "" {
			continue
		}
		buf.WriteString(`<meta`)
		attr(buf, "property", kv[0])
		attr(buf, "content", kv[1])
		buf.WriteString(`>`)
	}
}

// cssValue strips characters that could close the style element or rule.
func cssValue(s string) string {
	return strings.NewReplacer("<", "", ">", "", "{", "", "}", "", ";", "").Replace(s)
}
