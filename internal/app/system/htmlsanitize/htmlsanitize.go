// Package htmlsanitize cleans operator-supplied HTML (such as the home page
// intro) before it is rendered unescaped.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AllowElements("u", "s", "sub", "sup", "mark")
		policy.RequireNoFollowOnLinks(true)
	})
	return policy
}

// Sanitize removes scripts, event handlers and other unsafe markup while
// keeping basic formatting, lists and links.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return getPolicy().Sanitize(html)
}

// IsPlainText reports whether content contains no markup.
func IsPlainText(content string) bool {
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PrepareForDisplay returns content as safe template.HTML. Plain text is
// escaped and its newlines become <br>; HTML is sanitized.
func PrepareForDisplay(content string) template.HTML {
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		escaped := template.HTMLEscapeString(content)
		return template.HTML("<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>")
	}
	return template.HTML(Sanitize(content))
}
