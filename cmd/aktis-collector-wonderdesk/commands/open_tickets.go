package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"aktis-collector-wonderdesk/internal/aggregate"
	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/services"
)

var openTabName string

func init() {
	openTicketsCmd.Flags().StringVar(&openTabName, "tab-name", "", "Sheet tab to replace (default OPEN-TICKETS-YYYYMMDD)")
	rootCmd.AddCommand(openTicketsCmd)
}

func openTicketsTab(name string, today time.Time) string {
	if name == "" {
		name = "OPEN-TICKETS-" + today.Format("20060102")
	}
	return services.SheetTitle(name)
}

var openTicketsCmd = &cobra.Command{
	Use:   "open-tickets [--tab-name NAME]",
	Short: "Lists every open ticket of every agency.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		collector, err := rt.collector(nil)
		if err != nil {
			return err
		}

		results := collector.CollectAll(ctx, rt.tenants, services.CollectOptions{OpenOnly: true}, printOutcome)
		rows := aggregate.OpenTicketsTable(results)

		if err := rt.writeCSV(services.OpenTicketsCSV, rows); err != nil {
			return err
		}
		services.RenderTable(os.Stdout, "Open tickets", rows, nil)

		if err := cancelled(ctx, rt); err != nil {
			return err
		}

		publisher, err := rt.publisher(ctx)
		if err != nil || publisher == nil {
			return err
		}

		tab := openTicketsTab(openTabName, time.Now().In(rt.loc))
		if err := publisher.ReplaceTab(ctx, tab, rows); err != nil {
			rt.logger.Error().Err(err).Str("tab", tab).Msg("Sheet push failed")
			return err
		}
		common.PrintSuccess("Pushed " + tab)
		return nil
	},
}
