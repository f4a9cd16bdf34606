package aggregate

import (
	"strconv"

	"aktis-collector-wonderdesk/internal/models"
)

// SummaryHeader is the column contract of the tenant summary output
var SummaryHeader = []string{
	"Nombre Agencia",
	"Tickets Abiertos",
	"Tickets Cerrados",
	"Abiertos Última Semana",
	"Cerrados Última Semana",
	"DS",
	"P3",
	"Error",
}

// ListingCount is a total read from a listing banner, if one was shown
type ListingCount struct {
	Value int
	Known bool
}

// SummaryInput is everything needed to summarise one tenant
type SummaryInput struct {
	Tenant      models.TenantContext
	Window      models.TimeWindow
	Open        *models.ScanResult
	Closed      *models.ScanResult
	OpenCalls   ListingCount
	ClosedCalls ListingCount
}

type SummaryOptions struct {
	// CountOccurrences counts every issue code instead of every ticket with a code
	CountOccurrences bool
}

// BuildSummaryRow combines one tenant's open and closed scans
func BuildSummaryRow(in SummaryInput, opts SummaryOptions) models.SummaryRow {
	row := models.SummaryRow{
		TenantCode:  in.Tenant.Code,
		DisplayName: in.Tenant.Name(),
	}

	var open []models.TicketRecord
	if in.Open != nil {
		open = in.Open.RecordsInWindow
	}

	row.OpenTotal = len(open)
	if in.OpenCalls.Known {
		row.OpenTotal = in.OpenCalls.Value
	}

	for _, r := range open {
		if r.IsValid() && in.Window.Contains(r.Date) {
			row.OpenInWindow++
		}
		if opts.CountOccurrences {
			row.IssueCount += len(r.IssueCodes)
		} else if r.HasIssue() {
			row.IssueCount++
		}
		if r.IsHighPriority {
			row.PriorityCount++
		}
	}

	if in.Closed != nil {
		row.ClosedTotal = in.Closed.TotalRecordsSeen
		row.ClosedInWindow = len(in.Closed.RecordsInWindow)
	}
	if in.ClosedCalls.Known {
		row.ClosedTotal = in.ClosedCalls.Value
	}

	return row
}

// ErrorRow marks a tenant that failed; its metrics stay blank
func ErrorRow(tenant models.TenantContext, err error) models.SummaryRow {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return models.SummaryRow{
		TenantCode:  tenant.Code,
		DisplayName: tenant.Name(),
		Error:       msg,
	}
}

// Total sums every numeric field across the non-error rows
func Total(rows []models.SummaryRow) models.SummaryRow {
	total := models.SummaryRow{DisplayName: models.TotalLabel}
	for _, r := range rows {
		if r.Failed() {
			continue
		}
		total.OpenTotal += r.OpenTotal
		total.ClosedTotal += r.ClosedTotal
		total.OpenInWindow += r.OpenInWindow
		total.ClosedInWindow += r.ClosedInWindow
		total.IssueCount += r.IssueCount
		total.PriorityCount += r.PriorityCount
	}
	return total
}

// SummaryTable renders header, tenant rows and a freshly computed TOTAL row
func SummaryTable(rows []models.SummaryRow) [][]string {
	out := make([][]string, 0, len(rows)+2)
	out = append(out, SummaryHeader)
	for _, r := range rows {
		out = append(out, summaryCells(r))
	}
	return append(out, summaryCells(Total(rows)))
}

func summaryCells(r models.SummaryRow) []string {
	if r.Failed() {
		return []string{r.DisplayName, "", "", "", "", "", "", r.Error}
	}
	return []string{
		r.DisplayName,
		strconv.Itoa(r.OpenTotal),
		strconv.Itoa(r.ClosedTotal),
		strconv.Itoa(r.OpenInWindow),
		strconv.Itoa(r.ClosedInWindow),
		strconv.Itoa(r.IssueCount),
		strconv.Itoa(r.PriorityCount),
		"",
	}
}
