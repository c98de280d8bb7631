package jsondb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linktrack/internal/models"
)

func newTestDB(t *testing.T) *JSONDB {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), "db_test.json")
	db, err := New(fileName)
	require.NoError(t, err)
	require.NotNil(t, db)

	return db
}

func TestCreateAndFindUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "alice", "alice@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := db.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.Equal(t, "alice@x.com", found.Email)

	byID, err := db.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)
}

func TestCreateUserDuplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "alice", "alice@x.com")
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, "alice", "other@x.com")
	assert.ErrorIs(t, err, models.ErrDuplicateUser)

	_, err = db.CreateUser(ctx, "bob", "alice@x.com")
	assert.ErrorIs(t, err, models.ErrDuplicateUser)

	// The failed insertions must not leave partial records behind.
	_, err = db.FindUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.Len(t, db.Cache.Users, 1)
}

func TestFindUserNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.FindUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	_, err = db.FindUserByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestCreateLink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	usr, err := db.CreateUser(ctx, "alice", "alice@x.com")
	require.NoError(t, err)

	link, err := db.CreateLink(ctx, usr.ID, "https://example.com", 7)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, link.OwnerID)
	assert.Equal(t, int64(7), link.Visits)
	assert.False(t, link.LastVisited.IsZero())

	// URLs are not unique: a second link to the same address is a distinct record.
	second, err := db.CreateLink(ctx, usr.ID, "https://example.com", 0)
	require.NoError(t, err)
	assert.NotEqual(t, link.ID, second.ID)

	links, err := db.FindLinksByOwner(ctx, usr.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestCreateLinkUnknownOwner(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CreateLink(context.Background(), "missing-user", "https://example.com", 0)
	assert.ErrorIs(t, err, models.ErrUnknownOwner)
}

func TestUpdateLinkVisits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	usr, err := db.CreateUser(ctx, "alice", "alice@x.com")
	require.NoError(t, err)
	link, err := db.CreateLink(ctx, usr.ID, "https://example.com", 0)
	require.NoError(t, err)

	visitedAt := time.Now().Add(time.Hour)
	err = db.UpdateLinkVisits(ctx, link.ID, 42, visitedAt)
	require.NoError(t, err)

	links, err := db.FindLinksByOwner(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(42), links[0].Visits)
	assert.True(t, links[0].LastVisited.Equal(visitedAt))

	// A missing link is a no-op, not an error.
	err = db.UpdateLinkVisits(ctx, "missing-link", 1, visitedAt)
	assert.NoError(t, err)
}

func TestFindAllLinksWithOwners(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice, err := db.CreateUser(ctx, "alice", "alice@x.com")
	require.NoError(t, err)
	bob, err := db.CreateUser(ctx, "bob", "bob@x.com")
	require.NoError(t, err)

	_, err = db.CreateLink(ctx, alice.ID, "https://example.com", 1)
	require.NoError(t, err)
	_, err = db.CreateLink(ctx, bob.ID, "https://example.org", 2)
	require.NoError(t, err)

	owned, err := db.FindAllLinksWithOwners(ctx)
	require.NoError(t, err)
	require.Len(t, owned, 2)

	owners := map[string]string{}
	for _, item := range owned {
		owners[item.Link.URL] = item.Owner.Username
	}
	assert.Equal(t, "alice", owners["https://example.com"])
	assert.Equal(t, "bob", owners["https://example.org"])
}

func TestPersistenceRoundtrip(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "db_test.json")
	ctx := context.Background()

	db, err := New(fileName)
	require.NoError(t, err)

	usr, err := db.CreateUser(ctx, "alice", "alice@x.com")
	require.NoError(t, err)
	_, err = db.CreateLink(ctx, usr.ID, "https://example.com", 5)
	require.NoError(t, err)

	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	found, err := reopened.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	links, err := reopened.FindLinksByOwner(ctx, found.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(5), links[0].Visits)

	_, err = os.Stat(fileName)
	assert.NoError(t, err)
}
