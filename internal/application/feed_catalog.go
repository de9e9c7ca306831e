package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

// FeedCatalog manages the configured feed sources.
type FeedCatalog struct {
	repo ports.FeedSourceRepository
}

func NewFeedCatalog(repo ports.FeedSourceRepository) *FeedCatalog {
	return &FeedCatalog{repo: repo}
}

func (c *FeedCatalog) List(ctx context.Context) ([]domain.FeedSource, error) {
	sources, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	return sources, nil
}

func (c *FeedCatalog) Add(ctx context.Context, source domain.FeedSource) error {
	source.ID = domain.FeedSourceID(strings.TrimSpace(string(source.ID)))
	source.Name = strings.TrimSpace(source.Name)
	source.Path = strings.TrimSpace(source.Path)
	if err := source.Validate(); err != nil {
		return fmt.Errorf("invalid feed source: %w", err)
	}

	if err := c.repo.Save(ctx, source); err != nil {
		return fmt.Errorf("save feed source: %w", err)
	}
	return nil
}

func (c *FeedCatalog) Remove(ctx context.Context, id domain.FeedSourceID) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove feed source %q: %w", id, err)
	}
	return nil
}

// Resolve returns the sources named by ids, in that order, or every source
// when ids is empty.
func (c *FeedCatalog) Resolve(ctx context.Context, ids []string) ([]domain.FeedSource, error) {
	if len(ids) == 0 {
		return c.List(ctx)
	}

	sources := make([]domain.FeedSource, 0, len(ids))
	for _, id := range ids {
		source, err := c.repo.GetByID(ctx, domain.FeedSourceID(strings.TrimSpace(id)))
		if err != nil {
			if errors.Is(err, domain.ErrFeedSourceNotFound) {
				return nil, fmt.Errorf("feed source %q: %w", id, err)
			}
			return nil, fmt.Errorf("get feed source %q: %w", id, err)
		}
		sources = append(sources, source)
	}
	return sources, nil
}
