package app

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var roleTokenPattern = regexp.MustCompile(`(?i)(system|assistant|user|role):`)

// SanitizeExtractionInput defends the role-based model conversation
// against prompt injection from user-supplied free text: HTML tags are
// stripped, role markers (`system:`, `assistant:`, `user:`, `role:` in
// any case) are replaced with a filtered marker, and fenced code blocks
// are removed.
func SanitizeExtractionInput(text string) string {
	text = stripHTML(text)
	text = roleTokenPattern.ReplaceAllString(text, "[filtered]")
	text = strings.ReplaceAll(text, "```", "")
	return text
}

// stripHTML drops markup and keeps only text content.
func stripHTML(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	tokenizer := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		}
	}
}
