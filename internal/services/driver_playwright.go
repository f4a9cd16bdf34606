package services

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/common"
)

// PlaywrightDriver drives a Chromium page through Playwright
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	nav     navWatch
	cfg     *common.HelpdeskConfig
	logger  arbor.ILogger
}

// NewPlaywrightDriver starts Playwright and opens a single page
func NewPlaywrightDriver(cfg *common.HelpdeskConfig, logger arbor.ILogger) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, common.WrapError(err, common.ErrorTypeNavigation, "BROWSER_START", "could not start playwright")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!cfg.Headful),
		Timeout:  playwright.Float(float64(cfg.NavigationTimeout().Milliseconds())),
	})
	if err != nil {
		pw.Stop()
		return nil, common.WrapError(err, common.ErrorTypeNavigation, "BROWSER_START", "could not launch chromium")
	}

	contextOptions := playwright.BrowserNewContextOptions{}
	if cfg.Timezone != "" {
		contextOptions.TimezoneId = playwright.String(cfg.Timezone)
	}
	browserContext, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, common.WrapError(err, common.ErrorTypeNavigation, "BROWSER_START", "could not create browser context")
	}

	page, err := browserContext.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, common.WrapError(err, common.ErrorTypeNavigation, "BROWSER_START", "could not create page")
	}

	logger.Debug().Str("headful", fmt.Sprintf("%v", cfg.Headful)).Msg("Playwright session started")

	d := &PlaywrightDriver{
		pw:      pw,
		browser: browser,
		page:    page,
		cfg:     cfg,
		logger:  logger,
	}
	d.listen()
	return d, nil
}

// listen feeds main frame navigation events to the click watch
func (d *PlaywrightDriver) listen() {
	d.page.OnRequest(func(req playwright.Request) {
		if req.IsNavigationRequest() && req.Frame() == d.page.MainFrame() {
			d.nav.navigationStarted()
		}
	})
	d.page.OnLoad(func(playwright.Page) {
		d.nav.loadFinished()
	})
}

func (d *PlaywrightDriver) timeout(ctx context.Context, fallback time.Duration) *float64 {
	return playwright.Float(float64(remaining(ctx, fallback).Milliseconds()))
}

func (d *PlaywrightDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Trace().Str("url", url).Msg("Navigating")
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   d.timeout(ctx, d.cfg.NavigationTimeout()),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	return err
}

func (d *PlaywrightDriver) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.Content()
}

func (d *PlaywrightDriver) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.URL(), nil
}

func (d *PlaywrightDriver) Count(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return d.page.Locator(selector).Count()
}

func (d *PlaywrightDriver) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: d.timeout(ctx, d.cfg.ClickTimeout()),
	})
}

func (d *PlaywrightDriver) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.nav.arm()
	return d.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: d.timeout(ctx, d.cfg.ClickTimeout()),
	})
}

func (d *PlaywrightDriver) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.nav.arm()
	return d.page.Locator(selector).First().Press(key, playwright.LocatorPressOptions{
		Timeout: d.timeout(ctx, d.cfg.ClickTimeout()),
	})
}

func (d *PlaywrightDriver) Affordances(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := d.page.Evaluate(affordanceTextsScript())
	if err != nil {
		return nil, err
	}

	raw, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected affordance result %T", result)
	}
	texts := make([]string, len(raw))
	for i, v := range raw {
		texts[i], _ = v.(string)
	}
	return texts, nil
}

func (d *PlaywrightDriver) ClickAffordance(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.nav.arm()
	result, err := d.page.Evaluate(clickAffordanceScript(index))
	if err != nil {
		return err
	}
	if clicked, _ := result.(bool); !clicked {
		return fmt.Errorf("no clickable control at index %d", index)
	}
	return nil
}

// WaitStable waits for a navigation started by the last click to load,
// then for the network to go idle.
func (d *PlaywrightDriver) WaitStable(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.nav.wait(waitCtx, min(navigationGrace, timeout)); err != nil {
		return err
	}
	return d.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: d.timeout(waitCtx, timeout),
	})
}

func (d *PlaywrightDriver) Close() error {
	if d.browser != nil {
		d.browser.Close()
	}
	if d.pw != nil {
		return d.pw.Stop()
	}
	return nil
}
