package content

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Issue records a field that failed validation during Normalize.
type Issue struct {
	Index int    // position in the upstream list
	Slug  string // empty when the slug itself is the problem
	Field string // struct field name, e.g. "Slug" or "ReadTime"
	Rule  string // validation tag that failed
}

// Normalize returns a cleaned copy of posts in the same order. A read time
// below one minute is treated as absent. Tags keep their positions so the
// card shows the upstream first three; blank ones are only reported. Records
// without a slug are kept but reported so the caller can log the degraded key.
func Normalize(posts []PostSummary) ([]PostSummary, []Issue) {
	if len(posts) == 0 {
		return nil, nil
	}
	out := make([]PostSummary, len(posts))
	var issues []Issue
	for i, p := range posts {
		p.Slug = strings.TrimSpace(p.Slug)

		err := validate.Struct(p)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, Issue{Index: i, Slug: p.Slug, Field: fe.StructField(), Rule: fe.Tag()})
				if fe.StructField() == "ReadTime" {
					p.ReadTime = nil
				}
			}
		}
		out[i] = p
	}
	return out, issues
}
