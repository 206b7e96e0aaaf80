// Package domain holds the core types shared across the changetrack pipeline.
package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// prSuffixPattern matches a squash-merge PR reference at the end of a
// commit subject, e.g. "Fix getfield_tfunc bug (#58123)".
var prSuffixPattern = regexp.MustCompile(`\(#(\d+)\)$`)

// CommitRecord represents one commit on the resolved first-parent range.
type CommitRecord struct {
	SHA      string
	Author   string
	Date     string
	Subject  string
	Files    []string
	PRNumber int // 0 when the subject carries no PR reference
}

// ShortSHA returns the abbreviated hash used for display.
func (c CommitRecord) ShortSHA() string {
	if len(c.SHA) <= 12 {
		return c.SHA
	}
	return c.SHA[:12]
}

// HasPR reports whether the commit was correlated to a pull request.
func (c CommitRecord) HasPR() bool {
	return c.PRNumber > 0
}

// ParsePRSuffix extracts a trailing "(#NNNNN)" reference from a commit
// subject. On a match it returns the PR number and the subject with the
// suffix stripped and surrounding whitespace trimmed.
func ParsePRSuffix(subject string) (number int, title string, ok bool) {
	trimmed := strings.TrimRight(subject, " \t")
	m := prSuffixPattern.FindStringSubmatchIndex(trimmed)
	if m == nil {
		return 0, subject, false
	}
	number, err := strconv.Atoi(trimmed[m[2]:m[3]])
	if err != nil || number <= 0 {
		return 0, subject, false
	}
	title = strings.TrimRight(trimmed[:m[0]], " \t")
	return number, title, true
}
