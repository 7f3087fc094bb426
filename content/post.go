// Package content fetches blog post summaries from a content store.
//
// Two stores are provided: SanityClient talks to the hosted CMS query API and
// SQLiteStore keeps posts in a local database for offline development. Both
// return records in publication order, newest first; callers never re-sort.
package content

import (
	"context"
	"errors"
	"time"

	"github.com/eringen/folio/imageurl"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("content: post not found")

// PostSummary is the projection of a blog post used by the listing.
// Optional fields are nil (or empty for Tags) when the store has no value.
type PostSummary struct {
	Title         string        `json:"title"`
	Slug          string        `json:"slug" validate:"required"`
	Excerpt       *string       `json:"excerpt,omitempty"`
	Category      *string       `json:"category,omitempty"`
	Tags          []string      `json:"tags,omitempty" validate:"dive,required"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
	ReadTime      *int          `json:"readTime,omitempty" validate:"omitempty,gte=1"`
	FeaturedImage *imageurl.Ref `json:"featuredImage,omitempty"`
}

// Post is a full post as shown on its detail page.
type Post struct {
	PostSummary
	Body string `json:"body,omitempty"`
}

// Link returns the detail page path for the post.
func (p PostSummary) Link() string {
	return "/blog/" + p.Slug
}

// Source is a read-only content store.
type Source interface {
	// ListPosts returns every blog post summary, newest first.
	ListPosts(ctx context.Context) ([]PostSummary, error)
	// GetPost returns the post with the given slug or ErrNotFound.
	GetPost(ctx context.Context, slug string) (Post, error)
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Time returns a pointer to t, or nil for the zero time.
func Time(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
