package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	t.Run("The base memorystorage package test", func(t *testing.T) {
		theStorage, err := New()
		require.NoError(t, err, "The memorystorage.New() should not return error")

		usr, err := theStorage.CreateUser(context.Background(), "alice", "alice@x.com")
		require.NoError(t, err, "The `theStorage.CreateUser()` should not return error")

		found, err := theStorage.FindUserByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, found.ID)

		link, err := theStorage.CreateLink(context.Background(), usr.ID, "https://example.com", 0)
		require.NoError(t, err, "The `theStorage.CreateLink()` should not return error")

		links, err := theStorage.FindLinksByOwner(context.Background(), usr.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, link.ID, links[0].ID)

		err = theStorage.Ping(context.Background())
		assert.NoError(t, err, "The memorystorage.Ping() should not return error")

		err = theStorage.Close()
		assert.NoError(t, err, "The memorystorage.Close() should not return error")
	})
}
