package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aktis-collector-wonderdesk/internal/aggregate"
	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/services"
)

var (
	dailyDate  string
	dailyStart string
	dailyEnd   string
)

func init() {
	dailyCmd.Flags().StringVar(&dailyDate, "date", "", "Backfill a single day (YYYY-MM-DD)")
	dailyCmd.Flags().StringVar(&dailyStart, "start", "", "Backfill range start (YYYY-MM-DD, inclusive)")
	dailyCmd.Flags().StringVar(&dailyEnd, "end", "", "Backfill range end (YYYY-MM-DD, inclusive)")
	rootCmd.AddCommand(dailyCmd)
}

// dailyRun is one appended block of rows: the window scanned and the Fecha label
type dailyRun struct {
	window models.TimeWindow
	label  time.Time
}

// dailyPlan resolves the flags into runs. Without flags it is the default
// daily window labelled today; --date or --start/--end backfill day by day.
func dailyPlan(now time.Time, loc *time.Location, date, start, end string) ([]dailyRun, error) {
	parse := func(flag, v string) (time.Time, error) {
		t, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			return time.Time{}, common.NewConfigurationError("DATE_INVALID", fmt.Sprintf("--%s must be YYYY-MM-DD", flag)).
				WithDetails(v).
				WithCause(err)
		}
		return t, nil
	}

	switch {
	case date != "":
		if start != "" || end != "" {
			return nil, common.NewConfigurationError("DATE_FLAGS", "--date cannot be combined with --start/--end")
		}
		start, end = date, date
	case start == "" && end == "":
		window, label := models.DailyWindow(now, loc)
		return []dailyRun{{window: window, label: label}}, nil
	case start == "" || end == "":
		return nil, common.NewConfigurationError("DATE_FLAGS", "--start and --end must be given together")
	}

	s, err := parse("start", start)
	if err != nil {
		return nil, err
	}
	e, err := parse("end", end)
	if err != nil {
		return nil, err
	}

	var runs []dailyRun
	for _, day := range models.BackfillDays(s, e, loc) {
		runs = append(runs, dailyRun{window: models.DayWindow(day, loc), label: day})
	}
	return runs, nil
}

var dailyCmd = &cobra.Command{
	Use:   "daily [--date YYYY-MM-DD | --start YYYY-MM-DD --end YYYY-MM-DD]",
	Short: "Collects the daily snapshot and appends it to the daily sheet tab.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		runs, err := dailyPlan(time.Now(), rt.loc, dailyDate, dailyStart, dailyEnd)
		if err != nil {
			return err
		}

		history, err := rt.openHistory()
		if err != nil {
			return err
		}
		defer closeHistory(rt, history)

		collector, err := rt.collector(history)
		if err != nil {
			return err
		}

		publisher, err := rt.publisher(ctx)
		if err != nil {
			return err
		}

		for _, run := range runs {
			label := run.label.Format(time.DateOnly)
			rt.logger.Info().Str("label", label).Str("window", run.window.String()).Msg("Daily run")
			common.PrintInfo(fmt.Sprintf("Daily %s (%s)", label, run.window))

			results := collector.CollectAll(ctx, rt.tenants, services.CollectOptions{
				Window:          run.window,
				Day:             run.label,
				RetryZeroClosed: true,
			}, printOutcome)

			rows := summaries(results)
			services.RenderSummary(os.Stdout, aggregate.SummaryTable(rows))

			if err := cancelled(ctx, rt); err != nil {
				return err
			}
			if publisher == nil {
				continue
			}

			startRow, err := publisher.AppendDaily(ctx, rt.cfg.Sheets.DailyTab, aggregate.DailyHeader, func(startRow int) [][]string {
				return aggregate.DailyRows(run.label, rows, startRow, rt.cfg.Sheets.RowStride)
			})
			if err != nil {
				rt.logger.Error().Err(err).Str("tab", rt.cfg.Sheets.DailyTab).Msg("Daily append failed")
				return err
			}
			common.PrintSuccess(fmt.Sprintf("Appended %s to %s from row %d", label, rt.cfg.Sheets.DailyTab, startRow))
		}
		return nil
	},
}
