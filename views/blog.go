package views

import (
	"bytes"
	"context"
	"strconv"

	"github.com/a-h/templ"
)

// BlogSection renders the "Latest Blog Posts" section. With no cards it
// renders nothing at all.
func BlogSection(cards []Card) templ.Component {
	if len(cards) == 0 {
		return templ.NopComponent
	}
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<section id="blog" class="blog">`)
		buf.WriteString(`<div class="container">`)
		buf.WriteString(`<div class="blog__header">`)
		buf.WriteString(`<h2 class="blog__heading">Latest Blog Posts</h2>`)
		buf.WriteString(`<p class="blog__subtitle">Thoughts, tutorials, and insights</p>`)
		buf.WriteString(`</div>`)
		buf.WriteString(`<div class="blog__grid">`)
		for _, c := range cards {
			writeCard(buf, c)
		}
		buf.WriteString(`</div></div></section>`)
		return nil
	})
}

func writeCard(buf *bytes.Buffer, c Card) {
	buf.WriteString(`<article class="post-card"`)
	attr(buf, "data-key", c.Key)
	if c.Degraded {
		buf.WriteString(` data-degraded="true"`)
	}
	buf.WriteString(`>`)

	if c.ImageURL != "" {
		buf.WriteString(`<div class="post-card__media"><img class="post-card__image"`)
		urlAttr(buf, "src", c.ImageURL)
		attr(buf, "alt", c.ImageAlt)
		attr(buf, "width", strconv.Itoa(CardImageWidth))
		attr(buf, "height", strconv.Itoa(CardImageHeight))
		buf.WriteString(` loading="lazy" decoding="async"></div>`)
	}

	buf.WriteString(`<div class="post-card__body">`)
	buf.WriteString(`<div class="post-card__meta">`)
	if c.Category != "" {
		buf.WriteString(`<span class="post-card__category">`)
		text(buf, c.Category)
		buf.WriteString(`</span>`)
	}
	buf.WriteString(`<div class="post-card__when">`)
	if c.Date != "" {
		buf.WriteString(`<time class="post-card__date"`)
		attr(buf, "datetime", c.DateTime)
		buf.WriteString(`>`)
		text(buf, c.Date)
		buf.WriteString(`</time>`)
	}
	if c.ReadTime != "" {
		buf.WriteString(`<span class="post-card__sep" aria-hidden="true">•</span>`)
		buf.WriteString(`<span class="post-card__read-time">`)
		text(buf, c.ReadTime)
		buf.WriteString(`</span>`)
	}
	buf.WriteString(`</div></div>`)

	buf.WriteString(`<h3 class="post-card__title">`)
	text(buf, c.Title)
	buf.WriteString(`</h3>`)

	if c.Excerpt != "" {
		buf.WriteString(`<p class="post-card__excerpt">`)
		text(buf, c.Excerpt)
		buf.WriteString(`</p>`)
	}

	if len(c.Tags) > 0 {
		buf.WriteString(`<div class="post-card__tags">`)
		for _, tag := range c.Tags {
			buf.WriteString(`<span class="post-card__tag"`)
			attr(buf, "data-key", c.Key+"-"+tag)
			buf.WriteString(`>#`)
			text(buf, tag)
			buf.WriteString(`</span>`)
		}
		buf.WriteString(`</div>`)
	}

	if c.Link != "" {
		buf.WriteString(`<a class="post-card__link"`)
		urlAttr(buf, "href", c.Link)
		buf.WriteString(`>Read More →</a>`)
	}
	buf.WriteString(`</div></article>`)
}
