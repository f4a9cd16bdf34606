package scanner

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"aktis-collector-wonderdesk/internal/interfaces"
	"aktis-collector-wonderdesk/internal/models"
)

// Extractor turns a page snapshot into records; no records means end of data
type Extractor func(page *models.PageSnapshot) []models.TicketRecord

// Scanner walks a paginated listing collecting records in a time window
type Scanner struct {
	extract Extractor
	logger  arbor.ILogger
}

func New(extract Extractor, logger arbor.ILogger) *Scanner {
	return &Scanner{extract: extract, logger: logger}
}

// pass accumulates one traversal
type pass struct {
	window models.TimeWindow
	result *models.ScanResult
	seen   map[string]bool
}

func newPass(window models.TimeWindow, strategy string) *pass {
	return &pass{
		window: window,
		result: &models.ScanResult{Strategy: strategy, RecordsInWindow: []models.TicketRecord{}},
		seen:   make(map[string]bool),
	}
}

// pageStats describes one visited page
type pageStats struct {
	records  int
	fresh    int
	inWindow int
	minDate  time.Time
	maxDate  time.Time
}

func (p *pass) visit(records []models.TicketRecord) pageStats {
	stats := pageStats{records: len(records)}

	for _, r := range records {
		if r.HasDate() {
			if stats.minDate.IsZero() || r.Date.Before(stats.minDate) {
				stats.minDate = r.Date
			}
			if r.Date.After(stats.maxDate) {
				stats.maxDate = r.Date
			}
		}

		if r.ID != "" {
			if p.seen[r.ID] {
				continue
			}
			p.seen[r.ID] = true
			p.result.TotalRecordsSeen++
		}
		stats.fresh++

		if !p.accepts(r) {
			continue
		}
		p.result.RecordsInWindow = append(p.result.RecordsInWindow, r)
		stats.inWindow++
	}
	return stats
}

// accepts applies the window; an unbounded window keeps every identified ticket row
func (p *pass) accepts(r models.TicketRecord) bool {
	if p.window.Unbounded() {
		return r.ID != "" && r.Title() != ""
	}
	return r.IsValid() && p.window.Contains(r.Date)
}

// ScanWindow scans backward from the last page, then forward from the
// first page when the backward pass found nothing in the window. A listing
// without a last-page affordance is scanned forward from the current page.
func (s *Scanner) ScanWindow(ctx context.Context, cursor interfaces.PaginationCursor, window models.TimeWindow, maxPages int) (*models.ScanResult, error) {
	backward, jumped, err := s.scanBackward(ctx, cursor, window, maxPages)
	if err != nil {
		return nil, err
	}
	if !jumped {
		return backward, nil
	}
	if len(backward.RecordsInWindow) > 0 {
		return backward, nil
	}

	s.logger.Debug().
		Int("pages", backward.PagesVisited).
		Str("window", window.String()).
		Msg("Backward scan found no records in window, falling back to forward scan")

	if err := cursor.Rewind(ctx); err != nil {
		return nil, err
	}
	forward, err := s.ScanForward(ctx, cursor, window, maxPages)
	if err != nil {
		return nil, err
	}

	if backward.TotalRecordsSeen > forward.TotalRecordsSeen {
		forward.TotalRecordsSeen = backward.TotalRecordsSeen
	}
	forward.PagesVisited += backward.PagesVisited
	forward.HitCeiling = forward.HitCeiling || backward.HitCeiling
	return forward, nil
}

// ScanBackward jumps to the last page and walks back until a page lies
// entirely before the window, no previous page exists, or maxPages is hit.
// Without a last-page affordance the current page is the first one, so the
// listing is scanned forward instead.
func (s *Scanner) ScanBackward(ctx context.Context, cursor interfaces.PaginationCursor, window models.TimeWindow, maxPages int) (*models.ScanResult, error) {
	result, _, err := s.scanBackward(ctx, cursor, window, maxPages)
	return result, err
}

func (s *Scanner) scanBackward(ctx context.Context, cursor interfaces.PaginationCursor, window models.TimeWindow, maxPages int) (*models.ScanResult, bool, error) {
	jumped, err := cursor.JumpToLast(ctx)
	if err != nil {
		return nil, false, err
	}
	if !jumped {
		s.logger.Debug().Msg("No last-page affordance, scanning forward from current page")
		result, err := s.ScanForward(ctx, cursor, window, maxPages)
		return result, false, err
	}

	p := newPass(window, models.StrategyBackward)
	err = s.walk(ctx, cursor, p, maxPages, func(stats pageStats) bool {
		return !stats.maxDate.IsZero() && stats.maxDate.Before(window.Start)
	}, cursor.Retreat)
	if err != nil {
		return nil, true, err
	}
	return p.result, true, nil
}

// ScanForward walks forward from the current page. It stops on a page whose
// oldest date precedes the window when that page added nothing to the window.
func (s *Scanner) ScanForward(ctx context.Context, cursor interfaces.PaginationCursor, window models.TimeWindow, maxPages int) (*models.ScanResult, error) {
	p := newPass(window, models.StrategyForward)

	err := s.walk(ctx, cursor, p, maxPages, func(stats pageStats) bool {
		return !stats.minDate.IsZero() && stats.minDate.Before(window.Start) && stats.inWindow == 0
	}, cursor.Advance)
	if err != nil {
		return nil, err
	}
	return p.result, nil
}

// ScanAll walks forward from the current page collecting every ticket row
func (s *Scanner) ScanAll(ctx context.Context, cursor interfaces.PaginationCursor, maxPages int) (*models.ScanResult, error) {
	p := newPass(models.TimeWindow{}, models.StrategyFull)

	err := s.walk(ctx, cursor, p, maxPages, func(pageStats) bool { return false }, cursor.Advance)
	if err != nil {
		return nil, err
	}
	return p.result, nil
}

func (s *Scanner) walk(ctx context.Context, cursor interfaces.PaginationCursor, p *pass, maxPages int, cutoff func(pageStats) bool, move func(context.Context) (bool, error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.result.PagesVisited >= maxPages {
			p.result.HitCeiling = true
			s.logger.Warn().
				Str("strategy", p.result.Strategy).
				Int("max_pages", maxPages).
				Msg("Page ceiling reached, stopping scan")
			return nil
		}

		page, err := cursor.Current(ctx)
		if err != nil {
			return err
		}
		p.result.PagesVisited++

		records := s.extract(page)
		if len(records) == 0 {
			s.logger.Debug().Int("page", p.result.PagesVisited).Msg("Empty page, treating as end of data")
			return nil
		}

		stats := p.visit(records)
		s.logger.Trace().
			Str("strategy", p.result.Strategy).
			Int("page", p.result.PagesVisited).
			Int("records", stats.records).
			Int("in_window", stats.inWindow).
			Msg("Scanned page")

		if stats.fresh == 0 {
			s.logger.Debug().Int("page", p.result.PagesVisited).Msg("Page repeats records already seen, stopping scan")
			return nil
		}
		if cutoff(stats) {
			return nil
		}

		moved, err := move(ctx)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
	}
}
