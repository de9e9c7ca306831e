package ports

import (
	"context"
	"time"

	"github.com/bnema/aeye-cli/internal/domain"
)

type ImageFetcher interface {
	FetchImage(ctx context.Context, source domain.FeedSource) (domain.Image, error)
}

// Display borrows a handle for the duration of Publish only. Withdraw drops
// whatever the display shows for a source.
type Display interface {
	Publish(handle *domain.ResourceHandle)
	Withdraw(sourceID domain.FeedSourceID)
}

type PollMetrics interface {
	RecordFetchAttempt(sourceID domain.FeedSourceID)
	RecordFetchSuccess(sourceID domain.FeedSourceID, latency time.Duration)
	RecordFetchFailure(sourceID domain.FeedSourceID)
	RecordSkippedTick(sourceID domain.FeedSourceID)
	// HandleAllocated and HandleReleased move the live handle count by one.
	HandleAllocated()
	HandleReleased()
}

type NopPollMetrics struct{}

func (NopPollMetrics) RecordFetchAttempt(domain.FeedSourceID)                {}
func (NopPollMetrics) RecordFetchSuccess(domain.FeedSourceID, time.Duration) {}
func (NopPollMetrics) RecordFetchFailure(domain.FeedSourceID)                {}
func (NopPollMetrics) RecordSkippedTick(domain.FeedSourceID)                 {}
func (NopPollMetrics) HandleAllocated()                                     {}
func (NopPollMetrics) HandleReleased()                                      {}
