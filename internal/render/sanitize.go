package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// NewPolicy returns the preview sanitization policy: user-generated content
// rules plus the markup produced by the other stages (classes, heading ids,
// task list checkboxes, code language markers and external link attributes).
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowStyling()
	p.AllowDataAttributes()
	p.AllowElements("div", "span", "pre", "code", "input")

	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[\p{L}\p{N}\p{Mn}_-]+$`)).
		OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}

// Sanitize removes executable and unsafe constructs with policy.
func Sanitize(policy *bluemonday.Policy) Stage {
	return Stage{
		Name:      StageSanitize,
		Sanitizes: true,
		HTML: func(in []byte) ([]byte, error) {
			return policy.SanitizeBytes(in), nil
		},
	}
}
