package views

import (
	"bytes"
	"context"
	"strconv"

	"github.com/a-h/templ"
)

// Home composes the landing page: sidebar frame and blog section.
func Home(site Site, meta PageMeta, sidebar Sidebar, blog templ.Component) templ.Component {
	body := component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="shell">`)
		if err := SidebarFrame(sidebar).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`<main class="shell__main">`)
		writeIntro(buf, site)
		if blog != nil {
			if err := blog.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</main></div>`)
		return nil
	})
	return Page(site, meta, body)
}

func writeIntro(buf *bytes.Buffer, site Site) {
	buf.WriteString(`<header class="intro"><h1 class="intro__name">`)
	text(buf, site.Name)
	buf.WriteString(`</h1>`)
	if site.Description != "" {
		buf.WriteString(`<p class="intro__tagline">`)
		text(buf, site.Description)
		buf.WriteString(`</p>`)
	}
	buf.WriteString(`</header>`)
}

// PostDetail is the view model of the blog detail page.
type PostDetail struct {
	Card
	Body templ.Component
	// ImageURL on the embedded card is the listing size; HeroURL is larger.
	HeroURL string
}

// PostPage renders a single post.
func PostPage(site Site, meta PageMeta, sidebar Sidebar, post PostDetail) templ.Component {
	body := component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<div class="shell">`)
		if err := SidebarFrame(sidebar).Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`<main class="shell__main"><article class="post"`)
		attr(buf, "data-key", post.Key)
		buf.WriteString(`>`)
		buf.WriteString(`<a class="post__back" href="/#blog">← All posts</a>`)

		buf.WriteString(`<header class="post__header">`)
		if post.Category != "" {
			buf.WriteString(`<span class="post__category">`)
			text(buf, post.Category)
			buf.WriteString(`</span>`)
		}
		buf.WriteString(`<h1 class="post__title">`)
		text(buf, post.Title)
		buf.WriteString(`</h1><div class="post__meta">`)
		if post.Date != "" {
			buf.WriteString(`<time`)
			attr(buf, "datetime", post.DateTime)
			buf.WriteString(`>`)
			text(buf, post.Date)
			buf.WriteString(`</time>`)
		}
		if post.ReadTime != "" {
			buf.WriteString(`<span class="post__sep" aria-hidden="true">•</span><span>`)
			text(buf, post.ReadTime)
			buf.WriteString(`</span>`)
		}
		buf.WriteString(`</div></header>`)

		if hero := post.HeroURL; hero != "" {
			buf.WriteString(`<img class="post__image"`)
			urlAttr(buf, "src", hero)
			attr(buf, "alt", post.ImageAlt)
			buf.WriteString(`>`)
		}

		buf.WriteString(`<div class="post__body">`)
		if post.Body != nil {
			if err := post.Body.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</div>`)

		if len(post.Tags) > 0 {
			buf.WriteString(`<footer class="post__tags">`)
			for _, tag := range post.Tags {
				buf.WriteString(`<span class="post__tag">#`)
				text(buf, tag)
				buf.WriteString(`</span>`)
			}
			buf.WriteString(`</footer>`)
		}
		buf.WriteString(`</article></main></div>`)
		return nil
	})
	return Page(site, meta, body)
}

// NotFound is the 404 page.
func NotFound(site Site) templ.Component {
	return errorPage(site, 404, "Page not found", "The page you are looking for does not exist.")
}

// ServerError is the 500 page.
func ServerError(site Site) templ.Component {
	return errorPage(site, 500, "Something went wrong", "Please try again in a moment.")
}

func errorPage(site Site, code int, heading, message string) templ.Component {
	meta := PageMeta{Title: heading + " | " + site.Name}
	body := component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<main class="error-page"><p class="error-page__code">`)
		buf.WriteString(strconv.Itoa(code))
		buf.WriteString(`</p><h1 class="error-page__heading">`)
		text(buf, heading)
		buf.WriteString(`</h1><p class="error-page__message">`)
		text(buf, message)
		buf.WriteString(`</p><a class="error-page__home" href="/">Back home</a></main>`)
		return nil
	})
	return Page(site, meta, body)
}
