package services

import (
	"regexp"

	"aktis-collector-wonderdesk/internal/common"
)

// Affordance names a clickable control the navigator looks for
type Affordance string

const (
	AffordanceLast     Affordance = "last"
	AffordancePrevious Affordance = "previous"
	AffordanceNext     Affordance = "next"
	AffordanceHome     Affordance = "home"
	AffordanceClosed   Affordance = "closed"
	AffordanceSubmit   Affordance = "submit"
)

// AffordanceLabel is one accepted label for an affordance
type AffordanceLabel struct {
	Locale  string
	Pattern *regexp.Regexp
}

func label(locale, pattern string) AffordanceLabel {
	return AffordanceLabel{Locale: locale, Pattern: regexp.MustCompile(pattern)}
}

// affordanceLabels lists label variants in priority order.
// Exact glyphs come before words.
var affordanceLabels = map[Affordance][]AffordanceLabel{
	AffordanceLast: {
		label("glyph", `^\[>>\]$`),
		label("glyph", `^>>$`),
		label("glyph", `^»»$`),
		label("glyph", `^\]\]$`),
		label("en", `(?i)^last\b`),
		label("es", `(?i)^(final|[úu]ltim[oa])\b`),
	},
	AffordancePrevious: {
		label("glyph", `^\[<\]$`),
		label("glyph", `^<$`),
		label("glyph", `^«$`),
		label("es", `(?i)^(<\s*)?anterior\b`),
		label("en", `(?i)^(<\s*)?prev(ious)?\b`),
	},
	AffordanceNext: {
		label("glyph", `^\[>\]$`),
		label("glyph", `^>$`),
		label("glyph", `^»$`),
		label("en", `(?i)^next\b`),
		label("es", `(?i)^siguiente\b`),
		label("es", `(?i)^avanzar\b`),
	},
	AffordanceHome: {
		label("en", `(?i)^home$`),
		label("es", `(?i)^inicio$`),
	},
	AffordanceClosed: {
		label("en", `(?i)^list\s+closed$`),
		label("es", `(?i)^list\s+cerrados?$`),
		label("es", `(?i)^cerrados?$`),
		label("en", `(?i)^closed$`),
	},
	AffordanceSubmit: {
		label("en", `(?i)^(login|log\s*in|sign\s*in)$`),
		label("es", `(?i)^(entrar|acceder)$`),
	},
}

// MatchAffordance returns the index of the control in texts that best
// matches kind. Labels are tried in priority order; within one label the
// first control in document order wins, except for "last" where the last
// one does.
func MatchAffordance(texts []string, kind Affordance) (int, bool) {
	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = common.NormalizeText(t)
	}

	pickLast := kind == AffordanceLast
	for _, l := range affordanceLabels[kind] {
		found := -1
		for i, t := range normalized {
			if t == "" || !l.Pattern.MatchString(t) {
				continue
			}
			found = i
			if !pickLast {
				break
			}
		}
		if found >= 0 {
			return found, true
		}
	}
	return -1, false
}
