// Package syncer refreshes stored visit counts from the external stats
// provider. One sync pass fans out a bounded number of concurrent provider
// queries, one per link, and writes back every non-empty result.
package syncer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/linktrack/internal/logger"
	"github.com/patric-chuzhbe/linktrack/internal/models"
	"github.com/patric-chuzhbe/linktrack/internal/plausible"
)

type statsFetcher interface {
	FetchStats(ctx context.Context, linkURL string) ([]plausible.Stat, error)
}

type linkVisitsUpdater interface {
	UpdateLinkVisits(ctx context.Context, linkID string, visits int64, visitedAt time.Time) error
}

// Syncer runs sync passes over collections of links.
type Syncer struct {
	fetcher          statsFetcher
	db               linkVisitsUpdater
	concurrencyLimit int
}

// New returns a Syncer issuing at most concurrencyLimit provider queries
// at a time.
func New(fetcher statsFetcher, db linkVisitsUpdater, concurrencyLimit int) *Syncer {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}

	return &Syncer{
		fetcher:          fetcher,
		db:               db,
		concurrencyLimit: concurrencyLimit,
	}
}

// SyncLinks refreshes the visit count of every link in the given set.
// Per-link fetch failures and empty results leave the stored link untouched
// and never affect sibling links; they are logged and not reported to the
// caller, which cannot act on them anyway. A storage write failure aborts
// the pass and is returned. The pass waits for all in-flight work before
// returning; no ordering is guaranteed between links.
func (s *Syncer) SyncLinks(ctx context.Context, links []models.Link) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrencyLimit)

	for _, link := range links {
		link := link
		group.Go(func() error {
			stats, err := s.fetcher.FetchStats(groupCtx, link.URL)
			if err != nil {
				logger.Log.Warnw(
					"stats fetch failed, keeping stored count",
					"url", link.URL,
					"error", err,
				)
				return nil
			}
			if len(stats) == 0 {
				return nil
			}

			err = s.db.UpdateLinkVisits(groupCtx, link.ID, stats[0].Visitors, time.Now())
			if err != nil {
				return err
			}

			logger.Log.Debugw(
				"link visits refreshed",
				"url", link.URL,
				"visits", stats[0].Visitors,
			)

			return nil
		})
	}

	return group.Wait()
}
