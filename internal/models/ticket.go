package models

import "time"

// Listing status of a ticket as reported in output files.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// TicketRecord is one row of a helpdesk ticket listing
type TicketRecord struct {
	ID             string    `json:"id"`
	DateText       string    `json:"date_text"`
	Date           time.Time `json:"date"`
	Subject        string    `json:"subject"`
	Category       string    `json:"category"`
	RawRowText     string    `json:"raw_row_text"`
	IssueCodes     []string  `json:"issue_codes,omitempty"`
	IsHighPriority bool      `json:"is_high_priority"`
	Status         string    `json:"status,omitempty"`
}

// HasDate reports whether the date cell was parsed
func (r TicketRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// Title returns the subject, falling back to the category
func (r TicketRecord) Title() string {
	if r.Subject != "" {
		return r.Subject
	}
	return r.Category
}

// IsValid reports whether the record can take part in aggregation
func (r TicketRecord) IsValid() bool {
	return r.ID != "" && r.HasDate() && r.Title() != ""
}

// HasIssue reports whether at least one issue code was extracted
func (r TicketRecord) HasIssue() bool {
	return len(r.IssueCodes) > 0
}
