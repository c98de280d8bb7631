// Package storage declares the persistence contract implemented by the
// postgres, file and memory backends.
package storage

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/linktrack/internal/models"
)

// Storage is the full persistence surface used by the application.
// Every method is independently atomic at the single-record level;
// no cross-record transactional guarantees are provided or required.
type Storage interface {
	CreateUser(ctx context.Context, username, email string) (*models.User, error)

	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	FindUserByID(ctx context.Context, userID string) (*models.User, error)

	CreateLink(ctx context.Context, ownerID, url string, initialVisits int64) (*models.Link, error)

	FindLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error)

	FindAllLinksWithOwners(ctx context.Context) ([]models.OwnedLink, error)

	UpdateLinkVisits(ctx context.Context, linkID string, visits int64, visitedAt time.Time) error

	Ping(ctx context.Context) error

	Close() error
}
