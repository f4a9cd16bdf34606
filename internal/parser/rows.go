package parser

import (
	"strings"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/models"
)

// IssueSource selects which text issue codes are read from
type IssueSource string

const (
	IssueSourceSubject  IssueSource = "subject"
	IssueSourceCategory IssueSource = "category"
	IssueSourceRow      IssueSource = "row"
)

// ColumnMap maps logical fields to physical cell indices; -1 means absent
type ColumnMap struct {
	ID       int
	Date     int
	Category int
	Subject  int
}

// RowExtractor turns table rows into ticket records
type RowExtractor struct {
	dates  *DateNormalizer
	issues *IssueExtractor
	source IssueSource
}

func NewRowExtractor(dates *DateNormalizer, issues *IssueExtractor, source IssueSource) *RowExtractor {
	if source == "" {
		source = IssueSourceSubject
	}
	return &RowExtractor{dates: dates, issues: issues, source: source}
}

// Extract builds a record from row. ok is false for rows without cells.
func (x *RowExtractor) Extract(row models.RowSnapshot, cols ColumnMap) (models.TicketRecord, bool) {
	if len(row.Cells) == 0 {
		return models.TicketRecord{}, false
	}

	texts := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		if t := common.NormalizeText(c.Text); t != "" {
			texts = append(texts, t)
		}
	}

	record := models.TicketRecord{
		ID:         cellText(row, cols.ID),
		DateText:   cellText(row, cols.Date),
		Category:   cellText(row, cols.Category),
		RawRowText: strings.Join(texts, " "),
	}

	if cols.Subject >= 0 {
		record.Subject = cellLinkOrText(row, cols.Subject)
	}
	if record.Subject == "" && cols.Category >= 0 {
		record.Subject = cellLinkOrText(row, cols.Category)
	}
	if record.Subject == "" {
		record.Subject = anyLinkText(row, cols)
	}

	if date, ok := x.dates.Parse(record.DateText); ok {
		record.Date = date
	}

	var issueText string
	switch x.source {
	case IssueSourceCategory:
		issueText = record.Category
	case IssueSourceRow:
		issueText = record.RawRowText
	default:
		issueText = record.Title()
	}
	record.IssueCodes = x.issues.Extract(issueText)
	record.IsHighPriority = IsHighPriority(record.Subject + " " + record.Category)

	return record, true
}

// ExtractTable extracts every row from index start onwards
func (x *RowExtractor) ExtractTable(table models.TableSnapshot, start int, cols ColumnMap) []models.TicketRecord {
	var records []models.TicketRecord
	for i := start; i < len(table.Rows); i++ {
		if record, ok := x.Extract(table.Rows[i], cols); ok {
			records = append(records, record)
		}
	}
	return records
}

func cellText(row models.RowSnapshot, idx int) string {
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	return common.NormalizeText(row.Cells[idx].Text)
}

func cellLinkOrText(row models.RowSnapshot, idx int) string {
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	if link := common.NormalizeText(row.Cells[idx].FirstLinkText); link != "" {
		return link
	}
	return common.NormalizeText(row.Cells[idx].Text)
}

// anyLinkText skips the id and date cells, whose links are ticket numbers
func anyLinkText(row models.RowSnapshot, cols ColumnMap) string {
	for i, c := range row.Cells {
		if i == cols.ID || i == cols.Date {
			continue
		}
		if link := common.NormalizeText(c.FirstLinkText); link != "" {
			return link
		}
	}
	return ""
}
