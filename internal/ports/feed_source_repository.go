package ports

import (
	"context"

	"github.com/bnema/aeye-cli/internal/domain"
)

type FeedSourceRepository interface {
	GetByID(ctx context.Context, id domain.FeedSourceID) (domain.FeedSource, error)
	List(ctx context.Context) ([]domain.FeedSource, error)
	Save(ctx context.Context, source domain.FeedSource) error
	Delete(ctx context.Context, id domain.FeedSourceID) error
}
