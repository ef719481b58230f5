// Package sanitize limits markup in untrusted feed text according to named
// policies.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Policy names understood by the Sanitizer. Titles strip all markup;
// descriptions keep a restricted inline subset.
const (
	PolicyTitle       = "title"
	PolicyDescription = "description"
)

// Sanitizer applies named markup policies to untrusted feed text.
type Sanitizer struct {
	policies map[string]*bluemonday.Policy
}

// New builds a Sanitizer with the built-in title and description policies.
func New() *Sanitizer {
	return &Sanitizer{
		policies: map[string]*bluemonday.Policy{
			PolicyTitle:       bluemonday.StrictPolicy(),
			PolicyDescription: descriptionPolicy(),
		},
	}
}

// Sanitize returns html cleaned under the named policy. It fails closed: an
// unknown policy or a panic inside the policy engine yields an empty string,
// never the raw input.
func (s *Sanitizer) Sanitize(html, policy string) (out string) {
	p, ok := s.policies[policy]
	if !ok {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()

	return strings.TrimSpace(p.Sanitize(html))
}

// descriptionPolicy allows the inline markup commonly carried by feed
// summaries while dropping scripts, styles, and event handlers.
func descriptionPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"a", "b", "i", "em", "strong", "u", "br", "p",
		"ul", "ol", "li", "blockquote", "code", "pre",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return p
}
