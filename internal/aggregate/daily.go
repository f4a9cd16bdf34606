package aggregate

import (
	"fmt"
	"strconv"
	"time"

	"aktis-collector-wonderdesk/internal/models"
)

// DailyHeader is the A..N header of the daily tab
var DailyHeader = []string{
	"Fecha",
	"AGENCIA",
	"Tickets Abiertos",
	"Tickets Cerrados",
	"Abiertos Última Semana",
	"Cerrados Última Semana",
	"DS",
	"P3",
	"Total",
	"LW total",
	"Δ Cerrados(-22d)",
	"Semana",
	"Mes",
	"Año",
}

// firstDataRow is the sheet row right below the header
const firstDataRow = 2

// DailyRows renders one A..N row per successful tenant starting at sheet row
// startRow. Columns I, J and K are formulas; K compares closed totals stride rows apart.
func DailyRows(label time.Time, rows []models.SummaryRow, startRow, stride int) [][]string {
	if startRow < firstDataRow {
		startRow = firstDataRow
	}

	year, week := label.ISOWeek()
	fecha := label.Format("02/01/2006")
	semana := fmt.Sprintf("%d-%02d", year, week)
	mes := label.Format("2006-01")
	anyo := label.Format("2006")

	var out [][]string
	r := startRow
	for _, row := range rows {
		if row.Failed() {
			continue
		}

		delta := "0"
		if r-stride >= firstDataRow {
			delta = fmt.Sprintf("=IFNA(D%d-D%d;0)", r, r-stride)
		}

		out = append(out, []string{
			fecha,
			row.DisplayName,
			strconv.Itoa(row.OpenTotal),
			strconv.Itoa(row.ClosedTotal),
			strconv.Itoa(row.OpenInWindow),
			strconv.Itoa(row.ClosedInWindow),
			strconv.Itoa(row.IssueCount),
			strconv.Itoa(row.PriorityCount),
			fmt.Sprintf("=C%d+D%d", r, r),
			fmt.Sprintf("=E%d+F%d", r, r),
			delta,
			semana,
			mes,
			anyo,
		})
		r++
	}
	return out
}

// HistoryEntryFor converts a summary row into a persisted measurement
func HistoryEntryFor(row models.SummaryRow, day time.Time, recordedAt time.Time) *models.HistoryEntry {
	return &models.HistoryEntry{
		TenantCode:     row.TenantCode,
		Day:            day.Format("2006-01-02"),
		OpenTotal:      row.OpenTotal,
		ClosedTotal:    row.ClosedTotal,
		OpenInWindow:   row.OpenInWindow,
		ClosedInWindow: row.ClosedInWindow,
		IssueCount:     row.IssueCount,
		PriorityCount:  row.PriorityCount,
		RecordedAt:     recordedAt,
	}
}
