package services

import (
	"context"

	"aktis-collector-wonderdesk/internal/models"
	"aktis-collector-wonderdesk/internal/parser"
)

// ListingCursor is the pagination cursor over the listing the navigator
// currently shows. Rewind reopens the listing from its entry point.
type ListingCursor struct {
	nav    *Navigator
	rewind func(ctx context.Context) error
}

func NewListingCursor(nav *Navigator, rewind func(ctx context.Context) error) *ListingCursor {
	return &ListingCursor{nav: nav, rewind: rewind}
}

func (c *ListingCursor) Current(ctx context.Context) (*models.PageSnapshot, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.nav.cfg.NavigationTimeout())
	defer cancel()

	content, err := c.nav.driver.Content(opCtx)
	if err != nil {
		return nil, navigationError(ctx, err, "CONTENT", "could not read listing page")
	}
	url, err := c.nav.driver.URL(opCtx)
	if err != nil {
		return nil, navigationError(ctx, err, "CONTENT", "could not read listing url")
	}

	snapshot, err := parser.SnapshotFromHTML(url, content)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *ListingCursor) Advance(ctx context.Context) (bool, error) {
	return c.nav.Follow(ctx, AffordanceNext)
}

func (c *ListingCursor) Retreat(ctx context.Context) (bool, error) {
	return c.nav.Follow(ctx, AffordancePrevious)
}

func (c *ListingCursor) JumpToLast(ctx context.Context) (bool, error) {
	return c.nav.Follow(ctx, AffordanceLast)
}

func (c *ListingCursor) Rewind(ctx context.Context) error {
	if c.rewind == nil {
		return nil
	}
	return c.rewind(ctx)
}
