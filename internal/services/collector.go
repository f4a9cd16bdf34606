package services

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/aggregate"
	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/parser"
	"aktis-collector-wonderdesk/internal/scanner"
)

// DriverFactory opens a fresh browser session; one is used per tenant
type DriverFactory func() (interfaces.SessionDriver, error)

// CollectOptions selects what one run reads from each tenant
type CollectOptions struct {
	Window models.TimeWindow
	// OpenOnly skips the closed listing
	OpenOnly bool
	// Day keys the history store; zero disables history reads and writes
	Day time.Time
	// RetryZeroClosed retries a zero closed total and then falls back to history
	RetryZeroClosed bool
}

// TenantCallback is told about every finished tenant, in order
type TenantCallback func(result models.TenantResult)

// Collector runs the per-tenant scrape: login, open listing, closed listing
type Collector struct {
	config    *common.Config
	newDriver DriverFactory
	history   interfaces.HistoryStore
	assessor  interfaces.PageAssessor
	scanner   *scanner.Scanner
	logger    arbor.ILogger
}

// NewCollector wires the parsing pipeline from config. history may be nil.
func NewCollector(config *common.Config, newDriver DriverFactory, history interfaces.HistoryStore, logger arbor.ILogger) (*Collector, error) {
	loc, err := config.Location()
	if err != nil {
		return nil, err
	}

	rows := parser.NewRowExtractor(
		parser.NewDateNormalizer(loc),
		parser.NewIssueExtractor(config.Issues.Prefixes, config.Issues.MinDigits),
		parser.IssueSource(config.Issues.Source),
	)
	locator := parser.NewLocator(rows, parser.LocatorOptions{
		HeaderScanRows: config.Scan.HeaderScanRows,
		MinValidRows:   config.Scan.MinValidRows,
	})

	return &Collector{
		config:    config,
		newDriver: newDriver,
		history:   history,
		assessor:  NewPageAssessor(logger),
		scanner:   scanner.New(locator.Records, logger),
		logger:    logger,
	}, nil
}

// CollectAll processes tenants one after another in configuration order.
// Cancellation stops before the next tenant; finished tenants are returned.
func (c *Collector) CollectAll(ctx context.Context, tenants []models.TenantContext, opts CollectOptions, done TenantCallback) []models.TenantResult {
	results := make([]models.TenantResult, 0, len(tenants))

	for _, tenant := range tenants {
		if ctx.Err() != nil {
			c.logger.Warn().Int("remaining", len(tenants)-len(results)).Msg("Run cancelled, skipping remaining agencies")
			break
		}

		result := c.CollectTenant(ctx, tenant, opts)
		results = append(results, result)
		if done != nil {
			done(result)
		}
	}

	return results
}

// CollectTenant never returns an error: a failure becomes the result's error row
func (c *Collector) CollectTenant(ctx context.Context, tenant models.TenantContext, opts CollectOptions) models.TenantResult {
	start := time.Now()
	c.logger.Info().Str("tenant", tenant.Code).Str("window", opts.Window.String()).Msg("Collecting agency")

	result, err := c.collect(ctx, tenant, opts)
	if err != nil {
		c.logger.Error().Err(err).Str("tenant", tenant.Code).Msg("Agency failed")
		return models.TenantResult{
			Tenant:  tenant,
			Summary: aggregate.ErrorRow(tenant, err),
			Err:     err,
		}
	}

	c.logger.Info().
		Str("tenant", tenant.Code).
		Int("open", result.Summary.OpenTotal).
		Int("closed", result.Summary.ClosedTotal).
		Int("closed_in_window", result.Summary.ClosedInWindow).
		Str("elapsed", time.Since(start).Round(time.Millisecond).String()).
		Msg("Agency collected")
	return result
}

func (c *Collector) collect(ctx context.Context, tenant models.TenantContext, opts CollectOptions) (models.TenantResult, error) {
	result := models.TenantResult{Tenant: tenant}

	driver, err := c.newDriver()
	if err != nil {
		return result, err
	}
	defer driver.Close()

	nav := NewNavigator(driver, c.assessor, &c.config.Helpdesk, c.logger)
	if err := nav.Login(ctx, tenant); err != nil {
		return result, err
	}

	if err := nav.GoHome(ctx); err != nil {
		return result, err
	}
	openCalls, err := nav.ListingCount(ctx)
	if err != nil {
		return result, err
	}
	open, err := c.scanner.ScanAll(ctx, NewListingCursor(nav, nav.GoHome), c.config.Scan.MaxPagesOpen)
	if err != nil {
		return result, err
	}
	result.Open = open.RecordsInWindow

	input := aggregate.SummaryInput{
		Tenant:    tenant,
		Window:    opts.Window,
		Open:      open,
		OpenCalls: openCalls,
	}

	if !opts.OpenOnly {
		closed, err := c.scanClosed(ctx, nav, opts)
		if err != nil {
			return result, err
		}
		input.Closed = closed.result
		input.ClosedCalls = closed.calls
		result.Closed = closed.result.RecordsInWindow
	}

	result.Summary = aggregate.BuildSummaryRow(input, aggregate.SummaryOptions{
		CountOccurrences: c.config.Issues.CountOccurrences,
	})

	if !opts.OpenOnly && opts.RetryZeroClosed && result.Summary.ClosedTotal == 0 {
		c.closedFromHistory(tenant, opts.Day, &result.Summary)
	}
	c.record(opts.Day, result.Summary)

	return result, nil
}

type closedScan struct {
	result *models.ScanResult
	calls  aggregate.ListingCount
}

func (s closedScan) total() int {
	if s.calls.Known {
		return s.calls.Value
	}
	if s.result == nil {
		return 0
	}
	return s.result.TotalRecordsSeen
}

// scanClosed opens the closed listing and scans the window, retrying a zero total when asked
func (c *Collector) scanClosed(ctx context.Context, nav *Navigator, opts CollectOptions) (closedScan, error) {
	policy := common.RetryPolicy[closedScan]{
		MaxAttempts: 1,
		Delay:       time.Duration(c.config.Scan.ClosedRetryDelayMs) * time.Millisecond,
		IsEmpty:     func(s closedScan) bool { return s.total() == 0 },
	}
	if opts.RetryZeroClosed {
		policy.MaxAttempts = c.config.Scan.ClosedRetryAttempts
	}

	scan, attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) (closedScan, error) {
		if attempt > 1 {
			c.logger.Warn().Int("attempt", attempt).Msg("Closed total was zero, reloading closed listing")
		}
		if err := nav.GoClosed(ctx); err != nil {
			return closedScan{}, err
		}
		calls, err := nav.ListingCount(ctx)
		if err != nil {
			return closedScan{}, err
		}
		result, err := c.scanner.ScanWindow(ctx, NewListingCursor(nav, nav.GoClosed), opts.Window, c.config.Scan.MaxPagesClosed)
		if err != nil {
			return closedScan{}, err
		}
		return closedScan{result: result, calls: calls}, nil
	})
	if err != nil {
		return closedScan{}, err
	}

	c.logger.Debug().
		Int("attempts", attempts).
		Int("pages", scan.result.PagesVisited).
		Str("strategy", scan.result.Strategy).
		Int("in_window", len(scan.result.RecordsInWindow)).
		Msg("Closed listing scanned")
	return scan, nil
}

// closedFromHistory replaces a zero closed total with the tenant's last non-zero one
func (c *Collector) closedFromHistory(tenant models.TenantContext, day time.Time, row *models.SummaryRow) {
	if c.history == nil || day.IsZero() {
		return
	}

	prev, err := c.history.LastNonZeroClosed(tenant.Code, day.Format(time.DateOnly))
	if err != nil {
		c.logger.Warn().Err(err).Str("tenant", tenant.Code).Msg("History lookup failed")
		return
	}
	if prev == nil {
		c.logger.Warn().Str("tenant", tenant.Code).Msg("Closed total is zero and no earlier value is recorded")
		return
	}

	c.logger.Warn().
		Str("tenant", tenant.Code).
		Str("from_day", prev.Day).
		Int("closed", prev.ClosedTotal).
		Msg("Closed total is zero, using last recorded value")
	row.ClosedTotal = prev.ClosedTotal
}

func (c *Collector) record(day time.Time, row models.SummaryRow) {
	if c.history == nil || day.IsZero() {
		return
	}
	if err := c.history.SaveEntry(aggregate.HistoryEntryFor(row, day, time.Now())); err != nil {
		c.logger.Warn().Err(err).Str("tenant", row.TenantCode).Msg("Failed to record history")
	}
}
