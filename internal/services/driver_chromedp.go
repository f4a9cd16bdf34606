package services

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/common"
)

// ChromedpDriver drives a Chrome tab over the DevTools protocol
type ChromedpDriver struct {
	ctx    context.Context
	cancel context.CancelFunc
	nav    navWatch
	logger arbor.ILogger
}

// NewChromedpDriver launches Chrome, or attaches to a running instance when
// a remote debugging URL is configured.
func NewChromedpDriver(cfg *common.HelpdeskConfig, logger arbor.ILogger) (*ChromedpDriver, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if cfg.RemoteDebugURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteDebugURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(
			context.Background(),
			append(
				chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", !cfg.Headful),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.WindowSize(1366, 900),
			)...,
		)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)
	d := &ChromedpDriver{
		ctx: ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
		logger: logger,
	}
	d.listen()

	startCtx, startCancel := context.WithTimeout(ctx, cfg.NavigationTimeout())
	defer startCancel()

	actions := []chromedp.Action{}
	if cfg.Timezone != "" {
		actions = append(actions, emulation.SetTimezoneOverride(cfg.Timezone))
	}
	if err := chromedp.Run(startCtx, actions...); err != nil {
		d.cancel()
		return nil, common.WrapError(err, common.ErrorTypeNavigation, "BROWSER_START", "failed to start chrome session")
	}

	logger.Debug().
		Str("remote", cfg.RemoteDebugURL).
		Str("headful", fmt.Sprintf("%v", cfg.Headful)).
		Msg("Chrome session started")

	return d, nil
}

// listen feeds main frame navigation events to the click watch
func (d *ChromedpDriver) listen() {
	chromedp.ListenTarget(d.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameRequestedNavigation:
			if d.isMainFrame(e.FrameID) {
				d.nav.navigationStarted()
			}
		case *page.EventFrameStartedLoading:
			if d.isMainFrame(e.FrameID) {
				d.nav.navigationStarted()
			}
		case *page.EventLoadEventFired:
			d.nav.loadFinished()
		}
	})
}

// isMainFrame reports whether id is the tab's top level frame, whose id is the target id
func (d *ChromedpDriver) isMainFrame(id cdp.FrameID) bool {
	c := chromedp.FromContext(d.ctx)
	if c == nil || c.Target == nil {
		return true
	}
	return id == cdp.FrameID(c.Target.TargetID)
}

// bind derives a context from the tab that honours the caller's deadline and cancellation
func (d *ChromedpDriver) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(d.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		inner := cancel
		cancel = func() {
			cancelDeadline()
			inner()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (d *ChromedpDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := d.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *ChromedpDriver) Navigate(ctx context.Context, url string) error {
	d.logger.Trace().Str("url", url).Msg("Navigating")
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *ChromedpDriver) Content(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *ChromedpDriver) URL(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, chromedp.Location(&url))
	return url, err
}

func (d *ChromedpDriver) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := d.run(ctx, chromedp.Evaluate(fmt.Sprintf("document.querySelectorAll(%s).length", jsString(selector)), &n))
	return n, err
}

func (d *ChromedpDriver) Fill(ctx context.Context, selector, value string) error {
	return d.run(ctx,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (d *ChromedpDriver) Click(ctx context.Context, selector string) error {
	d.nav.arm()
	return d.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (d *ChromedpDriver) Press(ctx context.Context, selector, key string) error {
	d.nav.arm()
	return d.run(ctx, chromedp.SendKeys(selector, chromedpKey(key), chromedp.ByQuery))
}

func chromedpKey(key string) string {
	switch key {
	case "Enter":
		return kb.Enter
	case "Tab":
		return kb.Tab
	case "Escape":
		return kb.Escape
	default:
		return key
	}
}

func (d *ChromedpDriver) Affordances(ctx context.Context) ([]string, error) {
	var texts []string
	err := d.run(ctx, chromedp.Evaluate(affordanceTextsScript(), &texts))
	return texts, err
}

func (d *ChromedpDriver) ClickAffordance(ctx context.Context, index int) error {
	var clicked bool
	d.nav.arm()
	if err := d.run(ctx, chromedp.Evaluate(clickAffordanceScript(index), &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no clickable control at index %d", index)
	}
	return nil
}

// WaitStable waits for a navigation started by the last click to load,
// then until the document reports it has finished loading.
func (d *ChromedpDriver) WaitStable(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.nav.wait(waitCtx, min(navigationGrace, timeout)); err != nil {
		return err
	}
	return d.run(waitCtx,
		chromedp.Poll("document.readyState === 'complete'", nil,
			chromedp.WithPollingInterval(100*time.Millisecond),
			chromedp.WithPollingTimeout(timeout),
		),
	)
}

func (d *ChromedpDriver) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}
