package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aktis-collector-wonderdesk/internal/aggregate"
	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/services"
)

var reportDays int

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "Window length in days (default from scan.window_days)")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--days N]",
	Short: "Scrapes every agency over the last days and writes the summary, ticket and issue outputs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		days := rt.cfg.Scan.WindowDays
		if reportDays > 0 {
			days = reportDays
		}
		now := time.Now().In(rt.loc)
		window := models.LastDays(now, days)

		collector, err := rt.collector(nil)
		if err != nil {
			return err
		}

		rt.logger.Info().Str("window", window.String()).Msg("Report run")
		results := collector.CollectAll(ctx, rt.tenants, services.CollectOptions{Window: window}, printOutcome)

		outputs := reportOutputs(results, rt.cfg.Issues)
		for _, out := range outputs {
			if err := rt.writeCSV(out.file, out.rows); err != nil {
				return err
			}
		}

		services.RenderSummary(os.Stdout, outputs[0].rows)
		services.RenderRollup(os.Stdout, outputs[2].rows)

		if err := cancelled(ctx, rt); err != nil {
			return err
		}

		publisher, err := rt.publisher(ctx)
		if err != nil {
			return err
		}
		return publishReport(ctx, rt, publisher, outputs, now)
	},
}

type reportOutput struct {
	file string
	rows [][]string
}

// reportOutputs builds the summary, ticket and issue tables in that order
func reportOutputs(results []models.TenantResult, issues common.IssuesConfig) []reportOutput {
	rollup := aggregate.NewRollup()
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		rollup.Add(res.Tenant.Name(), aggregate.RollupRecords(res, issues.RollupScope == "all"))
	}

	return []reportOutput{
		{file: services.SummaryCSV, rows: aggregate.SummaryTable(summaries(results))},
		{file: services.TicketsCSV, rows: aggregate.TicketsTable(results)},
		{file: services.RollupCSV, rows: aggregate.RollupTable(rollup.Result(aggregate.ParseRollupOrder(issues.RollupOrder)))},
	}
}

// reportTabName is "<csv base>_<YYYY-MM-DD>"
func reportTabName(file string, day time.Time) string {
	return services.SheetTitle(strings.TrimSuffix(file, ".csv") + "_" + day.Format(time.DateOnly))
}

// publishReport pushes every output; a failed tab does not stop the others
func publishReport(ctx context.Context, rt *app, publisher interfaces.SheetPublisher, outputs []reportOutput, day time.Time) error {
	if publisher == nil {
		return nil
	}

	var firstErr error
	for _, out := range outputs {
		tab := reportTabName(out.file, day)
		if err := publisher.ReplaceTab(ctx, tab, out.rows); err != nil {
			rt.logger.Error().Err(err).Str("tab", tab).Msg("Sheet push failed")
			common.PrintError("Sheet push failed for " + tab)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		common.PrintSuccess("Pushed " + tab)
	}
	return firstErr
}
