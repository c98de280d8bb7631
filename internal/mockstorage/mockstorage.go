// Package mockstorage provides a testify-based mock implementation
// of the storage interface.
// It is used for unit testing the service and HTTP handlers by simulating
// storage behavior.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/linktrack/internal/models"
)

// StorageMock is a testify mock that implements the storage interface.
//
// Use it in service and router tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation.
func (m *StorageMock) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

// FindUserByUsername mocks fetching a user by username.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

// FindUserByID mocks fetching a user by ID.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

// CreateLink mocks link creation.
func (m *StorageMock) CreateLink(ctx context.Context, ownerID, url string, initialVisits int64) (*models.Link, error) {
	args := m.Called(ctx, ownerID, url, initialVisits)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

// FindLinksByOwner mocks fetching a user's links.
func (m *StorageMock) FindLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

// FindAllLinksWithOwners mocks the link+owner join used by the aggregate view.
func (m *StorageMock) FindAllLinksWithOwners(ctx context.Context) ([]models.OwnedLink, error) {
	args := m.Called(ctx)
	owned, _ := args.Get(0).([]models.OwnedLink)
	return owned, args.Error(1)
}

// UpdateLinkVisits mocks overwriting a link's visit count.
func (m *StorageMock) UpdateLinkVisits(ctx context.Context, linkID string, visits int64, visitedAt time.Time) error {
	args := m.Called(ctx, linkID, visits, visitedAt)
	return args.Error(0)
}

// Ping mocks a storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
