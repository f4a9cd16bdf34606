package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/services"
)

// app is what every collecting command needs before it touches a browser
type app struct {
	cfg     *common.Config
	tenants []models.TenantContext
	loc     *time.Location
	logger  arbor.ILogger
}

// setup loads configuration and tenants. Any error here ends the run with
// exit code 1 before the first navigation.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if mode != "" {
		cfg.Collector.Environment = parseMode(mode)
	}

	if err := common.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := common.GetLogger()

	tenants, err := common.LoadTenants()
	if err != nil {
		logger.Error().Err(err).Msg("Tenant configuration invalid")
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("version", common.GetVersion()).
		Str("build", common.GetBuild()).
		Str("command", cmd.Name()).
		Str("environment", cfg.Collector.Environment).
		Int("agencies", len(tenants)).
		Msg("Starting Aktis Collector WonderDesk")

	if !quiet {
		common.PrintBanner(cfg, cmd.Name(), len(tenants), common.GetLogFilePath())
	}

	return &app{cfg: cfg, tenants: tenants, loc: loc, logger: logger}, nil
}

// openHistory returns nil when local storage is disabled
func (rt *app) openHistory() (interfaces.HistoryStore, error) {
	if !rt.cfg.Storage.Enabled {
		return nil, nil
	}
	return services.NewHistoryStore(&rt.cfg.Storage)
}

func (rt *app) collector(history interfaces.HistoryStore) (*services.Collector, error) {
	newDriver := func() (interfaces.SessionDriver, error) {
		return services.NewSessionDriver(&rt.cfg.Helpdesk, rt.logger)
	}
	return services.NewCollector(rt.cfg, newDriver, history, rt.logger)
}

// publisher returns nil when the spreadsheet push is disabled
func (rt *app) publisher(ctx context.Context) (interfaces.SheetPublisher, error) {
	if !rt.cfg.Sheets.Enabled {
		return nil, nil
	}
	client, err := services.NewSheetsHTTPClient(ctx, rt.cfg.Sheets.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return services.NewSheetsPublisher(client, &rt.cfg.Sheets, rt.logger), nil
}

// printOutcome reports one finished agency on the console
func printOutcome(res models.TenantResult) {
	if res.Err != nil {
		common.PrintError(fmt.Sprintf("%s: %v", res.Tenant.Name(), res.Err))
		return
	}
	common.PrintSuccess(fmt.Sprintf("%s: %d open, %d closed (%d closed in window)",
		res.Tenant.Name(), res.Summary.OpenTotal, res.Summary.ClosedTotal, res.Summary.ClosedInWindow))
}

func summaries(results []models.TenantResult) []models.SummaryRow {
	rows := make([]models.SummaryRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, res.Summary)
	}
	return rows
}

// writeCSV writes one output file and reports it on the console
func (rt *app) writeCSV(name string, rows [][]string) error {
	path, err := services.WriteCSV(rt.cfg.Collector.OutputDir, name, rows)
	if err != nil {
		rt.logger.Error().Err(err).Str("file", name).Msg("CSV write failed")
		return err
	}
	rt.logger.Info().Str("path", path).Int("rows", len(rows)).Msg("CSV written")
	common.PrintInfo(fmt.Sprintf("Wrote %s", path))
	return nil
}

func closeHistory(rt *app, history interfaces.HistoryStore) {
	if history == nil {
		return
	}
	if err := history.Close(); err != nil {
		rt.logger.Warn().Err(err).Msg("Failed to close history store")
	}
}

// cancelled reports an interrupted run once the completed agencies are written
func cancelled(ctx context.Context, rt *app) error {
	if err := ctx.Err(); err != nil {
		rt.logger.Warn().Err(err).Msg("Run interrupted")
		return common.WrapError(err, common.ErrorTypeInternal, "INTERRUPTED", "run interrupted")
	}
	return nil
}
