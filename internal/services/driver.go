package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/common"
	"aktis-collector-wonderdesk/internal/interfaces"
)

const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
)

// affordanceSelector matches every control the navigator may click by label
const affordanceSelector = "a, button, input[type='submit'], input[type='button'], input[type='image']"

const affordanceTextsJS = `Array.from(document.querySelectorAll(%s)).map(el => {
	const text = (el.innerText || el.textContent || '').trim();
	return text || el.value || el.alt || el.title || '';
})`

const clickAffordanceJS = `(() => {
	const el = document.querySelectorAll(%s)[%d];
	if (!el) { return false; }
	el.click();
	return true;
})()`

// NewSessionDriver starts a browser session using the configured engine
func NewSessionDriver(cfg *common.HelpdeskConfig, logger arbor.ILogger) (interfaces.SessionDriver, error) {
	switch cfg.Engine {
	case EnginePlaywright:
		return NewPlaywrightDriver(cfg, logger)
	case EngineChromedp, "":
		return NewChromedpDriver(cfg, logger)
	default:
		return nil, common.NewConfigurationError("ENGINE_UNKNOWN", "unknown browser engine").WithDetails(cfg.Engine)
	}
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func affordanceTextsScript() string {
	return fmt.Sprintf(affordanceTextsJS, jsString(affordanceSelector))
}

func clickAffordanceScript(index int) string {
	return fmt.Sprintf(clickAffordanceJS, jsString(affordanceSelector), index)
}

// remaining caps limit by the time left before ctx expires
func remaining(ctx context.Context, limit time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return limit
	}
	d := time.Until(deadline)
	if d <= 0 {
		return time.Millisecond
	}
	return min(d, limit)
}

// navigationGrace is how long a settle waits for a click to start loading a
// new document before treating the click as one that stays on the page
const navigationGrace = 750 * time.Millisecond

// navWatch follows main frame navigations triggered by clicks and key
// presses, so that a settle right after one waits for the new document
// instead of reading the page the click left behind.
type navWatch struct {
	mu      sync.Mutex
	armed   bool
	started bool
	loaded  chan struct{}
}

// arm is called right before an interaction that may navigate
func (w *navWatch) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = true
	w.started = false
	w.loaded = make(chan struct{})
}

// navigationStarted records that the main frame began loading a document
func (w *navWatch) navigationStarted() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armed {
		w.started = true
	}
}

// loadFinished records that the main frame document fired its load event
func (w *navWatch) loadFinished() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armed {
		w.armed = false
		close(w.loaded)
	}
}

// wait blocks until the armed navigation has loaded. When nothing starts
// loading within grace the interaction did not navigate and wait returns nil.
func (w *navWatch) wait(ctx context.Context, grace time.Duration) error {
	w.mu.Lock()
	if !w.armed {
		w.mu.Unlock()
		return nil
	}
	loaded := w.loaded
	w.mu.Unlock()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	w.mu.Lock()
	if !w.started {
		w.armed = false
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
