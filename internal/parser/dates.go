package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"aktis-collector-wonderdesk/internal/common"
)

// Layouts seen in helpdesk listings, tried before the permissive parser
var dateLayouts = []string{
	"Jan 2 2006 3:04 PM",
	"Jan 2 2006 15:04",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var (
	monthDayYear = regexp.MustCompile(`([A-Za-zÀ-ÿ]{3,})\.?\s+(\d{1,2}),?\s+(\d{4})`)
	dayMonthYear = regexp.MustCompile(`(?i)(\d{1,2})\s+(?:de\s+)?([A-Za-zÀ-ÿ]{3,})\.?,?\s+(?:de\s+)?(\d{4})`)
)

// English and Spanish month prefixes
var monthPrefixes = map[string]time.Month{
	"jan": time.January, "ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April, "abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August, "ago": time.August,
	"sep": time.September, "set": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December, "dic": time.December,
}

// DateNormalizer parses loosely formatted listing dates. It never fails;
// an unparsable string yields ok=false.
type DateNormalizer struct {
	loc *time.Location
}

func NewDateNormalizer(loc *time.Location) *DateNormalizer {
	if loc == nil {
		loc = time.Local
	}
	return &DateNormalizer{loc: loc}
}

// Parse returns the timestamp in s and whether one was found
func (n *DateNormalizer) Parse(s string) (time.Time, bool) {
	s = common.NormalizeText(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseIn(s, n.loc, dateparse.PreferMonthFirst(true)); err == nil {
		return t, true
	}

	if m := monthDayYear.FindStringSubmatch(s); m != nil {
		if t, ok := n.build(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		if t, ok := n.build(m[2], m[1], m[3]); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

func (n *DateNormalizer) build(monthName, day, year string) (time.Time, bool) {
	month, ok := lookupMonth(monthName)
	if !ok {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}

	t := time.Date(y, month, d, 0, 0, 0, 0, n.loc)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func lookupMonth(name string) (time.Month, bool) {
	runes := []rune(strings.ToLower(name))
	if len(runes) < 3 {
		return 0, false
	}
	month, ok := monthPrefixes[string(runes[:3])]
	return month, ok
}
