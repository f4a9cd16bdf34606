package interfaces

import (
	"context"
	"time"

	"aktis-collector-wonderdesk/internal/models"
)

// SessionDriver is a live browser session against the helpdesk.
// Every call is bounded by the context deadline.
type SessionDriver interface {
	Navigate(ctx context.Context, url string) error
	Content(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Count(ctx context.Context, selector string) (int, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Press(ctx context.Context, selector, key string) error
	// Affordances lists the visible text of clickable elements in document order
	Affordances(ctx context.Context) ([]string, error)
	ClickAffordance(ctx context.Context, index int) error
	WaitStable(ctx context.Context, timeout time.Duration) error
	Close() error
}

// PaginationCursor exposes one paginated listing. Advance, Retreat and
// JumpToLast report false when the affordance is missing.
type PaginationCursor interface {
	Current(ctx context.Context) (*models.PageSnapshot, error)
	Advance(ctx context.Context) (bool, error)
	Retreat(ctx context.Context) (bool, error)
	JumpToLast(ctx context.Context) (bool, error)
	// Rewind returns to the first page of the listing
	Rewind(ctx context.Context) error
}

// HistoryStore persists daily measurements per tenant
type HistoryStore interface {
	SaveEntry(entry *models.HistoryEntry) error
	GetEntry(tenantCode, day string) (*models.HistoryEntry, error)
	// LastNonZeroClosed returns the most recent entry before day with a non-zero closed total
	LastNonZeroClosed(tenantCode, day string) (*models.HistoryEntry, error)
	ListEntries(tenantCode string) ([]*models.HistoryEntry, error)
	Close() error
}

// SheetPublisher writes tabular output to a spreadsheet
type SheetPublisher interface {
	ReplaceTab(ctx context.Context, title string, rows [][]string) error
	AppendDaily(ctx context.Context, tab string, header []string, build func(startRow int) [][]string) (int, error)
}

type PageAssessor interface {
	AssessPage(htmlContent, url string) (*models.PageAssessment, error)
}
