package services

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
)

const (
	homeURL    = testBaseURL + "/wonderdesk.cgi?do=home"
	closedURL  = testBaseURL + "/wonderdesk.cgi?do=hd_list&help_status=Closed"
	closedURL2 = closedURL + "&page=2"
	closedURL3 = closedURL + "&page=3"
)

func testConfig() *common.Config {
	cfg := common.DefaultConfig()
	cfg.Helpdesk.BaseURL = testBaseURL
	cfg.Helpdesk.Timezone = "UTC"
	cfg.Scan.ClosedRetryDelayMs = 0
	return cfg
}

func testTenant() models.TenantContext {
	return models.TenantContext{
		Code:        "ACME",
		DisplayName: "Acme Travel",
		Credentials: models.Credentials{Username: "acme", Password: "s3cret"},
	}
}

func testWindow() models.TimeWindow {
	return models.NewTimeWindow(
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	)
}

// helpdeskPages is a tenant with three open tickets and nine closed ones
// spread oldest first over three pages.
func helpdeskPages() map[string]string {
	open := []listingRow{
		{"101", "Jan 6 2024", "DS-120 printer down P3"},
		{"102", "Jan 2 2024", "Password reset"},
		{"103", "Jan 7 2024", "IS 707 VPN down"},
	}
	closedPage := func(first int) []listingRow {
		var rows []listingRow
		for d := first; d < first+3; d++ {
			rows = append(rows, listingRow{id: strconv.Itoa(d), date: "Jan " + strconv.Itoa(d) + " 2024", subject: "Closed ticket " + strconv.Itoa(d)})
		}
		return rows
	}

	return map[string]string{
		testBaseURL + "/wonderdesk.cgi": loginPage(standardLoginForm),
		homeURL:                         listingPage(3, open, ""),
		closedURL:                       listingPage(9, closedPage(1), pagerLink(closedURL2, "[>]")+pagerLink(closedURL3, "[>>]")),
		closedURL2:                      listingPage(9, closedPage(4), pagerLink(closedURL, "[<]")+pagerLink(closedURL3, "[>]")+pagerLink(closedURL3, "[>>]")),
		closedURL3:                      listingPage(9, closedPage(7), pagerLink(closedURL2, "[<]")),
	}
}

func newTestCollector(t *testing.T, site *fakeSite, cfg *common.Config, history interfaces.HistoryStore) *Collector {
	t.Helper()
	c, err := NewCollector(cfg, func() (interfaces.SessionDriver, error) { return site, nil }, history, arbor.NewLogger())
	require.NoError(t, err)
	return c
}

func TestCollectTenantReport(t *testing.T) {
	site := newFakeSite(helpdeskPages(), homeURL, "acme", "s3cret")
	c := newTestCollector(t, site, testConfig(), nil)

	result := c.CollectTenant(context.Background(), testTenant(), CollectOptions{Window: testWindow()})
	require.NoError(t, result.Err)
	require.True(t, site.closed)

	row := result.Summary
	require.Equal(t, "Acme Travel", row.DisplayName)
	require.Equal(t, 3, row.OpenTotal)
	require.Equal(t, 9, row.ClosedTotal)
	require.Equal(t, 2, row.OpenInWindow)
	require.Equal(t, 3, row.ClosedInWindow)
	require.Equal(t, 2, row.IssueCount)
	require.Equal(t, 1, row.PriorityCount)
	require.False(t, row.Failed())

	require.Len(t, result.Open, 3)

	var closedIDs []string
	for _, r := range result.Closed {
		closedIDs = append(closedIDs, r.ID)
	}
	require.ElementsMatch(t, []string{"5", "6", "7"}, closedIDs)

	// the backward pass stopped at page one without walking past it
	require.Equal(t, 1, site.visits[closedURL3])
}

func TestCollectTenantOpenOnly(t *testing.T) {
	site := newFakeSite(helpdeskPages(), homeURL, "acme", "s3cret")
	c := newTestCollector(t, site, testConfig(), nil)

	result := c.CollectTenant(context.Background(), testTenant(), CollectOptions{OpenOnly: true})
	require.NoError(t, result.Err)
	require.Len(t, result.Open, 3)
	require.Empty(t, result.Closed)
	require.Zero(t, site.visits[closedURL])
}

func TestCollectTenantBadCredentialsBecomesErrorRow(t *testing.T) {
	site := newFakeSite(helpdeskPages(), homeURL, "acme", "other")
	c := newTestCollector(t, site, testConfig(), nil)

	result := c.CollectTenant(context.Background(), testTenant(), CollectOptions{Window: testWindow()})
	require.Error(t, result.Err)
	require.True(t, common.IsErrorType(result.Err, common.ErrorTypeAuth))
	require.True(t, result.Summary.Failed())
	require.Equal(t, "Acme Travel", result.Summary.DisplayName)
	require.Empty(t, result.Open)
	require.True(t, site.closed)
}

func TestCollectTenantZeroClosedFallsBackToHistory(t *testing.T) {
	pages := helpdeskPages()
	pages[closedURL] = listingPage(0, nil, "")

	site := newFakeSite(pages, homeURL, "acme", "s3cret")
	cfg := testConfig()
	cfg.Scan.ClosedRetryAttempts = 2

	history, err := NewHistoryStore(&common.StorageConfig{Enabled: true, DatabasePath: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	defer history.Close()

	require.NoError(t, history.SaveEntry(&models.HistoryEntry{TenantCode: "ACME", Day: "2024-01-07", ClosedTotal: 42}))
	require.NoError(t, history.SaveEntry(&models.HistoryEntry{TenantCode: "ACME", Day: "2024-01-08", ClosedTotal: 0}))

	c := newTestCollector(t, site, cfg, history)
	day := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	result := c.CollectTenant(context.Background(), testTenant(), CollectOptions{
		Window:          models.DayWindow(day.AddDate(0, 0, -1), time.UTC),
		Day:             day,
		RetryZeroClosed: true,
	})
	require.NoError(t, result.Err)
	require.Equal(t, 42, result.Summary.ClosedTotal)

	// listing opened by menu click and by rewind on each attempt
	require.GreaterOrEqual(t, site.visits[closedURL], 2*cfg.Scan.ClosedRetryAttempts)

	saved, err := history.GetEntry("ACME", "2024-01-09")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, 42, saved.ClosedTotal)
}

func TestCollectAllKeepsOrderAndStopsWhenCancelled(t *testing.T) {
	tenants := []models.TenantContext{testTenant(), testTenant(), testTenant()}
	tenants[1].Code, tenants[2].Code = "B", "C"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []string
	c := newTestCollector(t, newFakeSite(helpdeskPages(), homeURL, "acme", "s3cret"), testConfig(), nil)
	c.newDriver = func() (interfaces.SessionDriver, error) {
		return newFakeSite(helpdeskPages(), homeURL, "acme", "s3cret"), nil
	}

	results := c.CollectAll(ctx, tenants, CollectOptions{Window: testWindow()}, func(r models.TenantResult) {
		seen = append(seen, r.Tenant.Code)
		if len(seen) == 2 {
			cancel()
		}
	})

	require.Equal(t, []string{"ACME", "B"}, seen)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
}
