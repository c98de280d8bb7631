// Package service implements the application use cases on top of the
// storage and the stats provider client.
package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/linktrack/internal/logger"
	"github.com/patric-chuzhbe/linktrack/internal/models"
	"github.com/patric-chuzhbe/linktrack/internal/plausible"
)

type userKeeper interface {
	CreateUser(ctx context.Context, username, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
}

type linkKeeper interface {
	CreateLink(ctx context.Context, ownerID, url string, initialVisits int64) (*models.Link, error)
	FindLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	FindAllLinksWithOwners(ctx context.Context) ([]models.OwnedLink, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	linkKeeper
	pinger
}

type statsFetcher interface {
	FetchStats(ctx context.Context, linkURL string) ([]plausible.Stat, error)
}

type linksSyncer interface {
	SyncLinks(ctx context.Context, links []models.Link) error
}

// Service wires the storage, the stats provider and the sync routine
// behind the operations the HTTP layer exposes.
type Service struct {
	db               storage
	fetcher          statsFetcher
	syncer           linksSyncer
	concurrencyLimit int
}

// New builds a Service. concurrencyLimit bounds the live-stats fan-out of
// the aggregate view.
func New(db storage, fetcher statsFetcher, syncer linksSyncer, concurrencyLimit int) *Service {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}

	return &Service{
		db:               db,
		fetcher:          fetcher,
		syncer:           syncer,
		concurrencyLimit: concurrencyLimit,
	}
}

// RegisterUser creates a new user account.
// Taken usernames and emails surface as models.ErrDuplicateUser.
func (s *Service) RegisterUser(ctx context.Context, username, email string) (*models.User, error) {
	return s.db.CreateUser(ctx, username, email)
}

// AddLink attaches a URL to an existing user. The visit count is seeded
// with one upfront provider query; when that query fails the link starts
// at zero and catches up on the next sync pass.
func (s *Service) AddLink(ctx context.Context, ownerID, linkURL string) (*models.User, *models.Link, error) {
	var initialVisits int64
	stats, err := s.fetcher.FetchStats(ctx, linkURL)
	if err != nil {
		logger.Log.Warnw("initial stats fetch failed, seeding zero visits", "url", linkURL, "error", err)
	} else if len(stats) > 0 {
		initialVisits = stats[0].Visitors
	}

	link, err := s.db.CreateLink(ctx, ownerID, linkURL, initialVisits)
	if err != nil {
		return nil, nil, err
	}

	owner, err := s.db.FindUserByID(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	return owner, link, nil
}

// GetUserLinks resolves a user by username, refreshes every owned link
// through a sync pass and re-reads the set for a consistent post-update
// view.
func (s *Service) GetUserLinks(ctx context.Context, username string) (*models.User, []models.Link, error) {
	usr, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	links, err := s.db.FindLinksByOwner(ctx, usr.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.syncer.SyncLinks(ctx, links); err != nil {
		return nil, nil, err
	}

	links, err = s.db.FindLinksByOwner(ctx, usr.ID)
	if err != nil {
		return nil, nil, err
	}

	return usr, links, nil
}

// CollectAllStats builds the aggregate view: every stored link with its
// owner and a live visitor count. A failed provider query degrades to the
// stored count for that link.
func (s *Service) CollectAllStats(ctx context.Context) ([]models.LinkStats, error) {
	owned, err := s.db.FindAllLinksWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.LinkStats, len(owned))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrencyLimit)

	for i, item := range owned {
		i, item := i, item
		group.Go(func() error {
			visits := item.Link.Visits
			stats, err := s.fetcher.FetchStats(groupCtx, item.Link.URL)
			if err != nil {
				logger.Log.Warnw("live stats fetch failed, using stored count", "url", item.Link.URL, "error", err)
			} else if len(stats) > 0 {
				visits = stats[0].Visitors
			}

			result[i] = models.LinkStats{
				Username: item.Owner.Username,
				URL:      item.Link.URL,
				Visits:   visits,
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
