package mailbox

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SnippetLength bounds the preview text of a message.
const SnippetLength = 200

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}

// Snippet collapses whitespace in body and truncates it to SnippetLength
// runes.
func Snippet(body string) string {
	s := strings.TrimSpace(whitespacePattern.ReplaceAllString(body, " "))
	if utf8.RuneCountInString(s) <= SnippetLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:SnippetLength]) + "..."
}
