package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/services"
)

func TestDailyPlan(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, madrid) }
	wednesday := time.Date(2024, 1, 10, 15, 30, 0, 0, madrid)

	cases := []struct {
		name       string
		date       string
		start, end string
		want       []dailyRun
		errCode    string
	}{
		{
			name: "default is yesterday labelled today",
			want: []dailyRun{{window: models.TimeWindow{Start: day(9), End: day(10)}, label: day(10)}},
		},
		{
			name: "single date",
			date: "2024-01-03",
			want: []dailyRun{{window: models.TimeWindow{Start: day(3), End: day(4)}, label: day(3)}},
		},
		{
			name:  "reversed range is swapped",
			start: "2024-01-05",
			end:   "2024-01-03",
			want: []dailyRun{
				{window: models.TimeWindow{Start: day(3), End: day(4)}, label: day(3)},
				{window: models.TimeWindow{Start: day(4), End: day(5)}, label: day(4)},
				{window: models.TimeWindow{Start: day(5), End: day(6)}, label: day(5)},
			},
		},
		{name: "half range", start: "2024-01-05", errCode: "DATE_FLAGS"},
		{name: "date with range", date: "2024-01-05", end: "2024-01-06", errCode: "DATE_FLAGS"},
		{name: "bad date", date: "05/01/2024", errCode: "DATE_INVALID"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs, err := dailyPlan(wednesday, madrid, tc.date, tc.start, tc.end)
			if tc.errCode != "" {
				var ce *common.CollectorError
				require.True(t, errors.As(err, &ce))
				require.Equal(t, common.ErrorTypeConfiguration, ce.Type)
				require.Equal(t, tc.errCode, ce.Code)
				return
			}
			require.NoError(t, err)
			require.Len(t, runs, len(tc.want))
			for i := range runs {
				require.True(t, tc.want[i].window.Start.Equal(runs[i].window.Start), "start %d", i)
				require.True(t, tc.want[i].window.End.Equal(runs[i].window.End), "end %d", i)
				require.True(t, tc.want[i].label.Equal(runs[i].label), "label %d", i)
			}
		})
	}
}

func TestTabNames(t *testing.T) {
	day := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	require.Equal(t, "agencias_wonderdesk_stats_2024-01-10", reportTabName(services.SummaryCSV, day))
	require.Equal(t, "OPEN-TICKETS-20240110", openTicketsTab("", day))
	require.Equal(t, "Abiertos hoy", openTicketsTab("Abiertos/hoy", day))
}

func TestReportOutputs(t *testing.T) {
	jan := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	acme := models.TenantContext{Code: "ACME", DisplayName: "Acme"}
	beta := models.TenantContext{Code: "BETA", DisplayName: "Beta"}
	broken := models.TenantContext{Code: "X", DisplayName: "Broken"}

	results := []models.TenantResult{
		{
			Tenant:  acme,
			Summary: models.SummaryRow{TenantCode: "ACME", DisplayName: "Acme", OpenTotal: 1, ClosedTotal: 2},
			Open:    []models.TicketRecord{{ID: "1", Date: jan(2), Subject: "DS-7 printer", IssueCodes: []string{"DS7"}}},
			Closed:  []models.TicketRecord{{ID: "2", Date: jan(3), Subject: "DS-9 scanner", IssueCodes: []string{"DS9"}}},
		},
		{
			Tenant:  broken,
			Summary: models.SummaryRow{TenantCode: "X", DisplayName: "Broken", Error: "login failed"},
			Err:     errors.New("login failed"),
		},
		{
			Tenant:  beta,
			Summary: models.SummaryRow{TenantCode: "BETA", DisplayName: "Beta", OpenTotal: 1},
			Open:    []models.TicketRecord{{ID: "5", Date: jan(4), Subject: "DS7 again", IssueCodes: []string{"DS7"}}},
		},
	}

	cases := []struct {
		name   string
		scope  string
		rollup [][]string
	}{
		{
			name:  "open scope",
			scope: "open",
			rollup: [][]string{
				{"DS", "Subject", "Agencias", "Num Agencias"},
				{"DS7", "DS-7 printer", "Acme, Beta", "2"},
			},
		},
		{
			name:  "all scope",
			scope: "all",
			rollup: [][]string{
				{"DS", "Subject", "Agencias", "Num Agencias"},
				{"DS7", "DS-7 printer", "Acme, Beta", "2"},
				{"DS9", "DS-9 scanner", "Acme", "1"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outputs := reportOutputs(results, common.IssuesConfig{RollupOrder: "agencies", RollupScope: tc.scope})
			require.Len(t, outputs, 3)
			require.Equal(t, services.SummaryCSV, outputs[0].file)
			require.Equal(t, services.TicketsCSV, outputs[1].file)
			require.Equal(t, services.RollupCSV, outputs[2].file)

			// header, three agencies, TOTAL
			summary := outputs[0].rows
			require.Len(t, summary, 5)
			require.Equal(t, "Broken", summary[2][0])
			require.Equal(t, "TOTAL", summary[4][0])

			// header, Acme open + closed, Beta open
			require.Len(t, outputs[1].rows, 4)

			if diff := cmp.Diff(tc.rollup, outputs[2].rows); diff != "" {
				t.Errorf("rollup mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
