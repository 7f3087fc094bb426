package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResponse = `{
  "query": "...",
  "ms": 4,
  "result": [
    {
      "title": "Hello World",
      "slug": {"_type": "slug", "current": "hello-world"},
      "excerpt": "First post",
      "category": "AI",
      "tags": ["llm", "go", "vision", "rag"],
      "publishedAt": "2024-03-05T00:00:00Z",
      "readTime": 5,
      "featuredImage": {
        "_type": "image",
        "asset": {"_ref": "image-abc-1200x800-jpg", "_type": "reference"},
        "hotspot": {"x": 0.5, "y": 0.4, "height": 0.5, "width": 0.5}
      }
    },
    {
      "title": "Bare",
      "slug": {"current": "bare"},
      "excerpt": null,
      "category": null,
      "tags": null,
      "publishedAt": null,
      "readTime": null,
      "featuredImage": null
    }
  ]
}`

func TestSanityListPosts(t *testing.T) {
	var gotQuery, gotPerspective, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotPerspective = r.URL.Query().Get("perspective")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listResponse))
	}))
	defer srv.Close()

	c := NewSanityClient("proj", "production", "2024-01-01", WithBaseURL(srv.URL))
	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/v2024-01-01/data/query/production", gotPath)
	assert.Equal(t, ListQuery, gotQuery)
	assert.Equal(t, "published", gotPerspective)

	require.Len(t, posts, 2)
	first := posts[0]
	assert.Equal(t, "Hello World", first.Title)
	assert.Equal(t, "hello-world", first.Slug)
	require.NotNil(t, first.Excerpt)
	assert.Equal(t, "First post", *first.Excerpt)
	require.NotNil(t, first.Category)
	assert.Equal(t, "AI", *first.Category)
	assert.Equal(t, []string{"llm", "go", "vision", "rag"}, first.Tags)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, first.ReadTime)
	assert.Equal(t, 5, *first.ReadTime)
	require.NotNil(t, first.FeaturedImage)
	assert.Equal(t, "image-abc-1200x800-jpg", first.FeaturedImage.Asset)
	require.NotNil(t, first.FeaturedImage.Hotspot)
	assert.Equal(t, 0.4, first.FeaturedImage.Hotspot.Y)

	bare := posts[1]
	assert.Equal(t, "bare", bare.Slug)
	assert.Nil(t, bare.Excerpt)
	assert.Nil(t, bare.Category)
	assert.Empty(t, bare.Tags)
	assert.Nil(t, bare.PublishedAt)
	assert.Nil(t, bare.ReadTime)
	assert.Nil(t, bare.FeaturedImage)
}

func TestSanityListPostsEmptyAndNull(t *testing.T) {
	for _, body := range []string{`{"result": []}`, `{"result": null}`, `{}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		c := NewSanityClient("proj", "production", "2024-01-01", WithBaseURL(srv.URL))
		posts, err := c.ListPosts(context.Background())
		srv.Close()
		require.NoError(t, err, body)
		assert.Empty(t, posts, body)
	}
}

func TestSanityQueryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "queryParseError", "description": "unexpected token"}}`))
	}))
	defer srv.Close()

	c := NewSanityClient("proj", "production", "2024-01-01", WithBaseURL(srv.URL))
	_, err := c.ListPosts(context.Background())

	var qe *QueryError
	require.True(t, errors.As(err, &qe), "want *QueryError, got %v", err)
	assert.Equal(t, http.StatusBadRequest, qe.Status)
	assert.Equal(t, "queryParseError", qe.Type)
	assert.Equal(t, "unexpected token", qe.Description)
}

func TestSanityUnavailablePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewSanityClient("proj", "production", "2024-01-01", WithBaseURL(url))
	_, err := c.ListPosts(context.Background())
	assert.Error(t, err)
}

func TestSanityGetPost(t *testing.T) {
	var gotSlug, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSlug = r.URL.Query().Get("$slug")
		gotAuth = r.Header.Get("Authorization")
		if gotSlug == `"missing"` {
			_, _ = w.Write([]byte(`{"result": null}`))
			return
		}
		_, _ = w.Write([]byte(`{"result": {"title": "Hello", "slug": {"current": "hello"}, "body": "Para one.\n\nPara two."}}`))
	}))
	defer srv.Close()

	c := NewSanityClient("proj", "production", "v2024-01-01", WithBaseURL(srv.URL), WithToken("secret"))
	post, err := c.GetPost(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, gotSlug)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "Para one.\n\nPara two.", post.Body)

	_, err = c.GetPost(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSanityEndpointHosts(t *testing.T) {
	c := NewSanityClient("proj", "production", "2024-01-01")
	assert.Equal(t, "https://proj.api.sanity.io/v2024-01-01/data/query/production", c.endpoint())

	c = NewSanityClient("proj", "production", "2024-01-01", WithCDN(true))
	assert.Equal(t, "https://proj.apicdn.sanity.io/v2024-01-01/data/query/production", c.endpoint())

	// authenticated queries bypass the CDN
	c = NewSanityClient("proj", "production", "2024-01-01", WithCDN(true), WithToken("t"))
	assert.Equal(t, "https://proj.api.sanity.io/v2024-01-01/data/query/production", c.endpoint())
}

func TestSanityIgnoresBadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": [{"title": "T", "slug": {"current": "t"}, "publishedAt": "last tuesday"}]}`))
	}))
	defer srv.Close()

	c := NewSanityClient("proj", "production", "2024-01-01", WithBaseURL(srv.URL))
	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].PublishedAt)
}

func TestSanityLenientOptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": [
			{"title": "A", "slug": {"current": "a"}, "readTime": 5},
			{"title": "B", "slug": {"current": "b"}, "readTime": "7"},
			{"title": "C", "slug": {"current": "c"}, "readTime": "soon"},
			{"title": "D", "slug": {"current": "d"}, "readTime": {"minutes": 3}},
			{"title": "E", "slug": {"current": "e"}, "publishedAt": "2024-03-05"}
		]}`))
	}))
	defer srv.Close()

	c := NewSanityClient("proj", "production", "2024-01-01", WithBaseURL(srv.URL))
	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 5)

	require.NotNil(t, posts[0].ReadTime)
	assert.Equal(t, 5, *posts[0].ReadTime)
	require.NotNil(t, posts[1].ReadTime)
	assert.Equal(t, 7, *posts[1].ReadTime)
	assert.Nil(t, posts[2].ReadTime)
	assert.Nil(t, posts[3].ReadTime)
	assert.Equal(t, "d", posts[3].Slug)

	require.NotNil(t, posts[4].PublishedAt)
	assert.True(t, posts[4].PublishedAt.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestParseReadTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		ok      bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"null", 0, false, false},
		{"5", 5, true, false},
		{"4.6", 5, true, false},
		{`"7"`, 7, true, false},
		{`" 12 "`, 12, true, false},
		{`"soon"`, 0, false, true},
		{"true", 0, false, true},
		{"[1]", 0, false, true},
	}
	for _, tt := range tests {
		got, ok, err := parseReadTime(json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr || ok != tt.ok || got != tt.want {
			t.Errorf("parseReadTime(%s) = %d, %v, %v; want %d, %v, err=%v", tt.raw, got, ok, err, tt.want, tt.ok, tt.wantErr)
		}
	}
}
