package story

import (
	"regexp"
	"strings"
)

// SafetyFilter rejects text containing any blocklisted word. Matching is
// case-insensitive and respects word boundaries, so "hell" does not match
// "hello" or "shell".
type SafetyFilter struct {
	pattern *regexp.Regexp
}

func NewSafetyFilter(words []string) *SafetyFilter {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return &SafetyFilter{}
	}
	// \b is ASCII-only in RE2; letters on either side must not be accented
	// letters either.
	return &SafetyFilter{pattern: regexp.MustCompile(
		`(?i)(?:^|[^\p{L}\p{N}_])(` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}_])`,
	)}
}

// Check returns the first blocklisted word found, or ok=true when none is.
func (f *SafetyFilter) Check(text string) (word string, ok bool) {
	if f.pattern == nil {
		return "", true
	}
	m := f.pattern.FindStringSubmatch(text)
	if m == nil {
		return "", true
	}
	return strings.ToLower(m[1]), false
}

func (f *SafetyFilter) Safe(text string) bool {
	_, ok := f.Check(text)
	return ok
}
