package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var priorityMarker = regexp.MustCompile(`(?i)\bP\s*3(\b|\.)`)

// IssueExtractor finds classification codes such as "DS-1234" or "IS 770"
type IssueExtractor struct {
	pattern *regexp.Regexp
}

// NewIssueExtractor matches any of prefixes, case-insensitive, with an optional
// hyphen, followed by at least minDigits digits
func NewIssueExtractor(prefixes []string, minDigits int) *IssueExtractor {
	if minDigits < 1 {
		minDigits = 1
	}
	quoted := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
	}
	return &IssueExtractor{
		pattern: regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)\s*-?\s*(\d{%d,})`, strings.Join(quoted, "|"), minDigits)),
	}
}

// Extract returns every code occurrence in order, normalized to PREFIX+digits
func (e *IssueExtractor) Extract(text string) []string {
	matches := e.pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return []string{}
	}

	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, strings.ToUpper(m[1])+m[2])
	}
	return codes
}

// Contains reports whether text carries at least one code
func (e *IssueExtractor) Contains(text string) bool {
	return e.pattern.MatchString(text)
}

// IsHighPriority reports a P3 marker in text. Repeated markers still count once.
func IsHighPriority(text string) bool {
	return priorityMarker.MatchString(text)
}

// UniqueCodes drops repeated codes, keeping first-seen order
func UniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// CodeNumber returns the numeric suffix of a normalized code
func CodeNumber(code string) (int, bool) {
	i := strings.IndexFunc(code, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(code[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}
