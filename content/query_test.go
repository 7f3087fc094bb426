package content

import "testing"

func TestListQuery(t *testing.T) {
	want := `*[_type == "blog"] | order(publishedAt desc){
  title,
  slug,
  excerpt,
  category,
  tags,
  publishedAt,
  readTime,
  featuredImage
}`
	if ListQuery != want {
		t.Errorf("ListQuery =\n%s\nwant\n%s", ListQuery, want)
	}
}

func TestPostQuery(t *testing.T) {
	want := `*[_type == "blog" && slug.current == $slug][0]{
  title,
  slug,
  excerpt,
  category,
  tags,
  publishedAt,
  readTime,
  featuredImage,
  "body": pt::text(body)
}`
	if PostQuery != want {
		t.Errorf("PostQuery =\n%s\nwant\n%s", PostQuery, want)
	}
}

func TestLink(t *testing.T) {
	p := PostSummary{Slug: "hello-world"}
	if got := p.Link(); got != "/blog/hello-world" {
		t.Errorf("Link() = %q, want /blog/hello-world", got)
	}
}
