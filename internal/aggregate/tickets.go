package aggregate

import (
	"aktis-collector-wonderdesk/internal/models"
)

// TicketsHeader is the column contract of the ticket detail output
var TicketsHeader = []string{"Agency", "Status", "ID", "Date", "Subject", "Category", "DS", "P3"}

// OpenTicketsHeader is the column contract of the open tickets tab
var OpenTicketsHeader = []string{"AGENCIA", "ID", "Fecha", "Mes", "Año", "Subject"}

// TicketsTable lists open then closed records of every successful tenant
func TicketsTable(results []models.TenantResult) [][]string {
	out := [][]string{TicketsHeader}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		agency := res.Tenant.Name()
		for _, r := range res.Open {
			out = append(out, ticketCells(agency, models.StatusOpen, r))
		}
		for _, r := range res.Closed {
			out = append(out, ticketCells(agency, models.StatusClosed, r))
		}
	}
	return out
}

func ticketCells(agency, status string, r models.TicketRecord) []string {
	return []string{agency, status, r.ID, r.DateText, r.Title(), r.Category, yes(r.HasIssue()), yes(r.IsHighPriority)}
}

func yes(b bool) string {
	if b {
		return "YES"
	}
	return ""
}

// OpenTicketsTable lists the valid open records of every successful tenant
func OpenTicketsTable(results []models.TenantResult) [][]string {
	out := [][]string{OpenTicketsHeader}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, r := range res.Open {
			if !r.IsValid() {
				continue
			}
			out = append(out, []string{
				res.Tenant.Name(),
				r.ID,
				r.Date.Format("02/01/2006"),
				r.Date.Format("2006-01"),
				r.Date.Format("2006"),
				r.Title(),
			})
		}
	}
	return out
}

// RollupRecords selects the records folded into the issue rollup
func RollupRecords(res models.TenantResult, includeClosed bool) []models.TicketRecord {
	if !includeClosed {
		return res.Open
	}
	all := make([]models.TicketRecord, 0, len(res.Open)+len(res.Closed))
	all = append(all, res.Open...)
	return append(all, res.Closed...)
}
