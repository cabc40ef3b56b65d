package text

import (
	"fmt"
	"strings"
)

const (
	// UpstreamIssueBodyPrefix marks a mirror issue body. The original issue URL
	// follows it directly, terminated by UpstreamIssueBodySeparator.
	UpstreamIssueBodyPrefix = "Upstreamed from "

	// UpstreamIssueBodySeparator separates the back-reference from the copied body.
	UpstreamIssueBodySeparator = "\n\n"
)

// UpstreamIssueBody renders the body of a mirror issue.
func UpstreamIssueBody(originalURL, originalBody string) string {
	return UpstreamIssueBodyPrefix + originalURL + UpstreamIssueBodySeparator + originalBody
}

// IsUpstreamIssueBody reports whether body was rendered by UpstreamIssueBody.
func IsUpstreamIssueBody(body string) bool {
	return strings.HasPrefix(normalizeNewlines(body), UpstreamIssueBodyPrefix)
}

// ParseUpstreamIssueBody returns the original issue URL embedded in a mirror
// issue body. It reports false if body is not a mirror body or the URL is empty.
func ParseUpstreamIssueBody(body string) (string, bool) {
	body = normalizeNewlines(body)
	rest, ok := strings.CutPrefix(body, UpstreamIssueBodyPrefix)
	if !ok {
		return "", false
	}
	first, _, _ := strings.Cut(rest, UpstreamIssueBodySeparator)
	originalURL := strings.TrimSpace(first)
	return originalURL, originalURL != ""
}

// IssueUpstreamedComment renders the comment posted on the original issue once
// its mirror exists.
func IssueUpstreamedComment(mirrorURL string) string {
	return fmt.Sprintf("Upstream issue at %s has been created.", mirrorURL)
}

// UpstreamResolvedComment renders the comment posted on the original issue once
// its mirror is closed.
func UpstreamResolvedComment(mirrorURL string) string {
	return fmt.Sprintf("Upstream issue at %s has been closed.", mirrorURL)
}

// Bodies edited in the web UI come back with CRLF line endings.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
