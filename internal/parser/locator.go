package parser

import (
	"regexp"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/models"
)

type field int

const (
	fieldID field = iota
	fieldDate
	fieldSubject
	fieldCategory
)

// HeaderLabel is one accepted header text for a logical column
type HeaderLabel struct {
	Locale  string
	Pattern *regexp.Regexp
}

// Header labels per logical column, checked in order
var headerLabels = map[field][]HeaderLabel{
	fieldID: {
		{Locale: "en", Pattern: regexp.MustCompile(`(?i)^(id|ticket\s*id|#)$`)},
		{Locale: "es", Pattern: regexp.MustCompile(`(?i)^(n[º°o]\.?|n[úu]m(ero)?\.?)$`)},
	},
	fieldDate: {
		{Locale: "en", Pattern: regexp.MustCompile(`(?i)\bdate`)},
		{Locale: "es", Pattern: regexp.MustCompile(`(?i)\bfecha`)},
	},
	fieldSubject: {
		{Locale: "en", Pattern: regexp.MustCompile(`(?i)^(subject|title|summary)$`)},
		{Locale: "es", Pattern: regexp.MustCompile(`(?i)^(asunto|t[íi]tulo|resumen)$`)},
	},
	fieldCategory: {
		{Locale: "en", Pattern: regexp.MustCompile(`(?i)categor(y|ies)`)},
		{Locale: "es", Pattern: regexp.MustCompile(`(?i)categor[íi]a`)},
	},
}

// Field order used when assigning header cells to columns
var fieldOrder = []field{fieldID, fieldDate, fieldSubject, fieldCategory}

const minHeaderCells = 6

// Positional layout used when no header is recognised
var positionalColumns = ColumnMap{ID: 1, Date: 2, Category: 5, Subject: -1}

// ResolvedTable is the located ticket table with its extracted records
type ResolvedTable struct {
	Index      int
	HeaderRow  int
	Columns    ColumnMap
	Positional bool
	Records    []models.TicketRecord
	ValidRows  int
}

type LocatorOptions struct {
	HeaderScanRows int
	MinValidRows   int
}

// Locator picks the ticket listing among the tables of a page
type Locator struct {
	extractor *RowExtractor
	opts      LocatorOptions
}

func NewLocator(extractor *RowExtractor, opts LocatorOptions) *Locator {
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = 3
	}
	if opts.MinValidRows <= 0 {
		opts.MinValidRows = 3
	}
	return &Locator{extractor: extractor, opts: opts}
}

// Locate returns the best ticket table. Tables with a recognised header
// win over positional matches; otherwise the table with most rows wins and
// the first one found breaks ties.
func (l *Locator) Locate(tables []models.TableSnapshot) (*ResolvedTable, bool) {
	var bestHeader, bestPositional *ResolvedTable

	for i, table := range tables {
		candidate := l.resolve(i, table)
		if candidate == nil || candidate.ValidRows < l.opts.MinValidRows {
			continue
		}

		best := &bestHeader
		if candidate.Positional {
			best = &bestPositional
		}
		if *best == nil || len(candidate.Records) > len((*best).Records) {
			*best = candidate
		}
	}

	if bestHeader != nil {
		return bestHeader, true
	}
	if bestPositional != nil {
		return bestPositional, true
	}
	return nil, false
}

// Records locates the ticket table of page and returns its records
func (l *Locator) Records(page *models.PageSnapshot) []models.TicketRecord {
	if page == nil {
		return nil
	}
	resolved, ok := l.Locate(page.Tables)
	if !ok {
		return nil
	}
	return resolved.Records
}

func (l *Locator) resolve(index int, table models.TableSnapshot) *ResolvedTable {
	resolved := &ResolvedTable{Index: index, HeaderRow: -1}

	limit := l.opts.HeaderScanRows
	if limit > len(table.Rows) {
		limit = len(table.Rows)
	}
	for i := 0; i < limit; i++ {
		if cols, ok := matchHeader(table.Rows[i]); ok {
			resolved.HeaderRow = i
			resolved.Columns = cols
			break
		}
	}

	if resolved.HeaderRow < 0 {
		width := table.Width()
		if width < 2 {
			return nil
		}
		resolved.Positional = true
		resolved.Columns = positionalColumns
		if resolved.Columns.Category >= width {
			resolved.Columns.Category = -1
			if width-1 > resolved.Columns.Date {
				resolved.Columns.Category = width - 1
			}
		}
	}

	resolved.Records = l.extractor.ExtractTable(table, resolved.HeaderRow+1, resolved.Columns)
	for _, r := range resolved.Records {
		if r.HasDate() && r.Title() != "" {
			resolved.ValidRows++
		}
	}
	return resolved
}

// matchHeader accepts a row with enough cells naming an id, a date and a subject or category
func matchHeader(row models.RowSnapshot) (ColumnMap, bool) {
	cols := ColumnMap{ID: -1, Date: -1, Category: -1, Subject: -1}
	if len(row.Cells) < minHeaderCells {
		return cols, false
	}

	for i, cell := range row.Cells {
		text := common.NormalizeText(cell.Text)
		if text == "" {
			continue
		}
		for _, f := range fieldOrder {
			slot := cols.slot(f)
			if *slot >= 0 || !matchesField(f, text) {
				continue
			}
			*slot = i
			break
		}
	}

	if cols.ID < 0 || cols.Date < 0 || (cols.Subject < 0 && cols.Category < 0) {
		return cols, false
	}
	return cols, true
}

func matchesField(f field, text string) bool {
	for _, label := range headerLabels[f] {
		if label.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func (c *ColumnMap) slot(f field) *int {
	switch f {
	case fieldID:
		return &c.ID
	case fieldDate:
		return &c.Date
	case fieldSubject:
		return &c.Subject
	default:
		return &c.Category
	}
}
