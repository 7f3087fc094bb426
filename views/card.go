package views

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/imageurl"
)

// Card image dimensions requested from the image service.
const (
	CardImageWidth  = 600
	CardImageHeight = 400
)

// MaxCardTags is how many tags a card shows.
const MaxCardTags = 3

// dateLayout is the long en-US date, e.g. "March 5, 2024".
const dateLayout = "January 2, 2006"

// Card is the view model of one post in the blog listing. Empty strings and
// nil slices mean the element is not rendered.
type Card struct {
	Key      string
	Degraded bool // Key is a positional fallback because the post has no slug

	Title    string
	Link     string
	ImageURL string
	ImageAlt string
	Category string
	Date     string
	DateTime string
	ReadTime string
	Excerpt  string
	Tags     []string
}

// FormatDate renders t as a long en-US date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// FormatReadTime renders a read time in minutes as "<n> min read".
func FormatReadTime(minutes int) string {
	return strconv.Itoa(minutes) + " min read"
}

// LimitTags returns at most MaxCardTags tags from the front of tags.
func LimitTags(tags []string) []string {
	if len(tags) > MaxCardTags {
		return tags[:MaxCardTags]
	}
	return tags
}

// NewCard derives the card for the post at position i. A failed image
// derivation leaves the card without an image and is returned as an error
// for the caller to log; the card is usable either way.
func NewCard(i int, p content.PostSummary, images imageurl.Builder) (Card, error) {
	c := Card{
		Key:   p.Slug,
		Title: p.Title,
		Tags:  LimitTags(p.Tags),
	}
	if p.Slug == "" {
		c.Key = "post-" + strconv.Itoa(i)
		c.Degraded = true
	} else {
		c.Link = p.Link()
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Excerpt != nil {
		c.Excerpt = *p.Excerpt
	}
	if p.PublishedAt != nil {
		c.Date = FormatDate(*p.PublishedAt)
		c.DateTime = p.PublishedAt.UTC().Format(time.RFC3339)
	}
	if p.ReadTime != nil && *p.ReadTime > 0 {
		c.ReadTime = FormatReadTime(*p.ReadTime)
	}

	var err error
	if p.FeaturedImage != nil && images != nil {
		var u string
		u, err = images.URL(*p.FeaturedImage, CardImageWidth, CardImageHeight)
		if err != nil {
			err = fmt.Errorf("card %s: %w", c.Key, err)
		} else {
			c.ImageURL = u
			c.ImageAlt = p.Title
			if c.ImageAlt == "" {
				c.ImageAlt = "Blog post"
			}
		}
	}
	return c, err
}

// NewCards derives one card per post, preserving order.
func NewCards(posts []content.PostSummary, images imageurl.Builder) ([]Card, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	cards := make([]Card, 0, len(posts))
	var errs []error
	for i, p := range posts {
		c, err := NewCard(i, p, images)
		if err != nil {
			errs = append(errs, err)
		}
		cards = append(cards, c)
	}
	return cards, errors.Join(errs...)
}
