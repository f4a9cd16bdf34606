package models

import "time"

// TotalLabel names the synthetic total row
const TotalLabel = "TOTAL"

// SummaryRow aggregates one tenant's listings
type SummaryRow struct {
	TenantCode     string `json:"tenant_code"`
	DisplayName    string `json:"display_name"`
	OpenTotal      int    `json:"open_total"`
	ClosedTotal    int    `json:"closed_total"`
	OpenInWindow   int    `json:"open_in_window"`
	ClosedInWindow int    `json:"closed_in_window"`
	IssueCount     int    `json:"issue_count"`
	PriorityCount  int    `json:"priority_count"`
	Error          string `json:"error,omitempty"`
}

// Failed reports whether the row carries an error
func (r SummaryRow) Failed() bool {
	return r.Error != ""
}

// IssueRollup folds one issue code across tenants
type IssueRollup struct {
	IssueCode        string   `json:"issue_code"`
	FirstSubjectSeen string   `json:"first_subject_seen"`
	Agencies         []string `json:"agencies"`
}

// AgencyCount is the number of distinct agencies reporting the code
func (r IssueRollup) AgencyCount() int {
	return len(r.Agencies)
}

// TenantResult is everything collected for one tenant in one run
type TenantResult struct {
	Tenant  TenantContext  `json:"tenant"`
	Summary SummaryRow     `json:"summary"`
	Open    []TicketRecord `json:"open"`
	Closed  []TicketRecord `json:"closed"`
	Err     error          `json:"-"`
}

// HistoryEntry is one persisted daily measurement for a tenant
type HistoryEntry struct {
	TenantCode     string    `json:"tenant_code"`
	Day            string    `json:"day"`
	OpenTotal      int       `json:"open_total"`
	ClosedTotal    int       `json:"closed_total"`
	OpenInWindow   int       `json:"open_in_window"`
	ClosedInWindow int       `json:"closed_in_window"`
	IssueCount     int       `json:"issue_count"`
	PriorityCount  int       `json:"priority_count"`
	RecordedAt     time.Time `json:"recorded_at"`
}
