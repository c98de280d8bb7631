// Package refresher periodically re-syncs every stored link in the
// background, so visit counts stay warm between page views.
package refresher

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/linktrack/internal/logger"
	"github.com/patric-chuzhbe/linktrack/internal/models"
)

type allLinksReader interface {
	FindAllLinksWithOwners(ctx context.Context) ([]models.OwnedLink, error)
}

type linksSyncer interface {
	SyncLinks(ctx context.Context, links []models.Link) error
}

// Refresher drives periodic sync passes over the full link set.
type Refresher struct {
	db           allLinksReader
	syncer       linksSyncer
	interval     time.Duration
	errorChannel chan error
}

// New returns a Refresher running one pass per interval.
func New(db allLinksReader, syncer linksSyncer, interval time.Duration) *Refresher {
	return &Refresher{
		db:           db,
		syncer:       syncer,
		interval:     interval,
		errorChannel: make(chan error, 1),
	}
}

// ListenErrors invokes callback for every error produced by background
// passes.
func (r *Refresher) ListenErrors(callback func(error)) {
	go func() {
		for err := range r.errorChannel {
			callback(err)
		}
	}()
}

func (r *Refresher) runPass(ctx context.Context) error {
	owned, err := r.db.FindAllLinksWithOwners(ctx)
	if err != nil {
		return err
	}

	links := make([]models.Link, 0, len(owned))
	for _, item := range owned {
		links = append(links, item.Link)
	}

	if err := r.syncer.SyncLinks(ctx, links); err != nil {
		return err
	}

	logger.Log.Infof("background refresh of %d links finished", len(links))

	return nil
}

// Run starts the background loop. It stops when ctx is canceled.
func (r *Refresher) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				close(r.errorChannel)
				return
			case <-ticker.C:
				if err := r.runPass(ctx); err != nil {
					r.errorChannel <- err
				}
			}
		}
	}()
}
