package content

import "strings"

// blogType is the document type of blog posts in the CMS.
const blogType = "blog"

var summaryFields = []string{
	"title",
	"slug",
	"excerpt",
	"category",
	"tags",
	"publishedAt",
	"readTime",
	"featuredImage",
}

// ListQuery is the fixed listing query: every blog post, newest first.
var ListQuery = groqQuery{
	filter:  `_type == "` + blogType + `"`,
	order:   "publishedAt desc",
	project: summaryFields,
}.String()

// PostQuery selects one blog post by its $slug parameter.
var PostQuery = groqQuery{
	filter:  `_type == "` + blogType + `" && slug.current == $slug`,
	first:   true,
	project: append(append([]string{}, summaryFields...), `"body": pt::text(body)`),
}.String()

type groqQuery struct {
	filter  string
	order   string
	first   bool
	project []string
}

func (q groqQuery) String() string {
	var b strings.Builder
	b.WriteString("*[")
	b.WriteString(q.filter)
	b.WriteString("]")
	if q.order != "" {
		b.WriteString(" | order(")
		b.WriteString(q.order)
		b.WriteString(")")
	}
	if q.first {
		b.WriteString("[0]")
	}
	if len(q.project) > 0 {
		b.WriteString("{\n  ")
		b.WriteString(strings.Join(q.project, ",\n  "))
		b.WriteString("\n}")
	}
	return b.String()
}
