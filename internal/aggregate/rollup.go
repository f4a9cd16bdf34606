package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/parser"
)

// RollupHeader is the column contract of the issue rollup output
var RollupHeader = []string{"DS", "Subject", "Agencias", "Num Agencias"}

// RollupOrder selects how rollup entries are sorted
type RollupOrder int

const (
	// ByAgencyCount sorts by descending agency count, then ascending code
	ByAgencyCount RollupOrder = iota
	// ByNumericSuffix sorts by the code's numeric part, then code
	ByNumericSuffix
)

// ParseRollupOrder maps "agencies" and "numeric" to an order
func ParseRollupOrder(s string) RollupOrder {
	if strings.EqualFold(s, "numeric") {
		return ByNumericSuffix
	}
	return ByAgencyCount
}

// Rollup folds issue codes across tenants. The first subject seen for a
// code sticks; the agency set only grows.
type Rollup struct {
	entries  map[string]*models.IssueRollup
	agencies map[string]map[string]bool
}

func NewRollup() *Rollup {
	return &Rollup{
		entries:  make(map[string]*models.IssueRollup),
		agencies: make(map[string]map[string]bool),
	}
}

// Add folds the valid records of one agency
func (r *Rollup) Add(agency string, records []models.TicketRecord) {
	for _, rec := range records {
		if !rec.IsValid() {
			continue
		}
		for _, code := range parser.UniqueCodes(rec.IssueCodes) {
			entry, ok := r.entries[code]
			if !ok {
				entry = &models.IssueRollup{IssueCode: code}
				r.entries[code] = entry
				r.agencies[code] = make(map[string]bool)
			}
			if entry.FirstSubjectSeen == "" {
				entry.FirstSubjectSeen = rec.Title()
			}
			if !r.agencies[code][agency] {
				r.agencies[code][agency] = true
				entry.Agencies = append(entry.Agencies, agency)
			}
		}
	}
}

// Result returns the entries in the requested order, agencies sorted by name
func (r *Rollup) Result(order RollupOrder) []models.IssueRollup {
	out := make([]models.IssueRollup, 0, len(r.entries))
	for _, entry := range r.entries {
		agencies := append([]string(nil), entry.Agencies...)
		sort.Strings(agencies)
		out = append(out, models.IssueRollup{
			IssueCode:        entry.IssueCode,
			FirstSubjectSeen: entry.FirstSubjectSeen,
			Agencies:         agencies,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case ByNumericSuffix:
			na, _ := parser.CodeNumber(a.IssueCode)
			nb, _ := parser.CodeNumber(b.IssueCode)
			if na != nb {
				return na < nb
			}
		default:
			if a.AgencyCount() != b.AgencyCount() {
				return a.AgencyCount() > b.AgencyCount()
			}
		}
		return a.IssueCode < b.IssueCode
	})
	return out
}

// RollupTable renders the rollup with its header
func RollupTable(entries []models.IssueRollup) [][]string {
	out := make([][]string, 0, len(entries)+1)
	out = append(out, RollupHeader)
	for _, e := range entries {
		out = append(out, []string{
			e.IssueCode,
			e.FirstSubjectSeen,
			strings.Join(e.Agencies, ", "),
			strconv.Itoa(e.AgencyCount()),
		})
	}
	return out
}
