package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linktrack/internal/db/memorystorage"
	"github.com/patric-chuzhbe/linktrack/internal/logger"
	"github.com/patric-chuzhbe/linktrack/internal/plausible"
	"github.com/patric-chuzhbe/linktrack/internal/service"
	"github.com/patric-chuzhbe/linktrack/internal/syncer"
)

// stubFetcher serves canned stats per URL; URLs without an entry fail,
// like an unreachable provider would.
type stubFetcher struct {
	visitsByURL map[string]int64
}

func (f *stubFetcher) FetchStats(ctx context.Context, linkURL string) ([]plausible.Stat, error) {
	visitors, found := f.visitsByURL[linkURL]
	if !found {
		return nil, fmt.Errorf("no stats for %s", linkURL)
	}
	return []plausible.Stat{{Date: "2024-01-01", Visitors: visitors, URL: linkURL}}, nil
}

func newTestServer(t *testing.T, fetcher *stubFetcher) (*httptest.Server, *memorystorage.MemoryStorage) {
	t.Helper()

	require.NoError(t, logger.Init("debug"))

	db, err := memorystorage.New()
	require.NoError(t, err)

	linksSyncer := syncer.New(fetcher, db, 4)
	theService := service.New(db, fetcher, linksSyncer, 4)

	srv := httptest.NewServer(New(theService))
	t.Cleanup(srv.Close)

	return srv, db
}

func noRedirectClient() *resty.Client {
	return resty.New().SetRedirectPolicy(resty.NoRedirectPolicy())
}

func TestGetIndex(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	resp, err := resty.New().R().Get(srv.URL + "/")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), `action="/api/add-user"`)
}

func TestPostAddUser(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	resp, err := noRedirectClient().R().
		SetFormData(map[string]string{
			"username": "alice",
			"email":    "alice@x.com",
		}).
		Post(srv.URL + "/api/add-user")
	require.Error(t, err, "the redirect must not be followed")

	assert.Equal(t, http.StatusFound, resp.StatusCode())
	assert.Equal(t, "/user/alice", resp.Header().Get("Location"))
}

func TestPostAddUserDuplicate(t *testing.T) {
	srv, db := newTestServer(t, &stubFetcher{})

	_, err := db.CreateUser(context.Background(), "alice", "alice@x.com")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		username string
		email    string
	}{
		{name: "taken username", username: "alice", email: "fresh@x.com"},
		{name: "taken email", username: "fresh", email: "alice@x.com"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resp, err := resty.New().R().
				SetFormData(map[string]string{
					"username": testCase.username,
					"email":    testCase.email,
				}).
				Post(srv.URL + "/api/add-user")
			require.NoError(t, err)

			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
		})
	}
}

func TestPostAddLink(t *testing.T) {
	fetcher := &stubFetcher{visitsByURL: map[string]int64{"https://example.com": 17}}
	srv, db := newTestServer(t, fetcher)

	usr, err := db.CreateUser(context.Background(), "alice", "alice@x.com")
	require.NoError(t, err)

	resp, err := noRedirectClient().R().
		SetFormData(map[string]string{
			"url":    "https://example.com",
			"userId": usr.ID,
		}).
		Post(srv.URL + "/api/add-link")
	require.Error(t, err, "the redirect must not be followed")

	assert.Equal(t, http.StatusFound, resp.StatusCode())
	assert.Equal(t, "/user/alice", resp.Header().Get("Location"))

	links, err := db.FindLinksByOwner(context.Background(), usr.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(17), links[0].Visits, "the initial fetch must seed the visit count")
}

func TestPostAddLinkUnknownOwner(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{visitsByURL: map[string]int64{"https://example.com": 1}})

	resp, err := resty.New().R().
		SetFormData(map[string]string{
			"url":    "https://example.com",
			"userId": "missing-user",
		}).
		Post(srv.URL + "/api/add-link")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
}

func TestGetUserPageRendersSyncedVisits(t *testing.T) {
	fetcher := &stubFetcher{visitsByURL: map[string]int64{"https://example.com": 42}}
	srv, db := newTestServer(t, fetcher)

	usr, err := db.CreateUser(context.Background(), "alice", "alice@x.com")
	require.NoError(t, err)
	_, err = db.CreateLink(context.Background(), usr.ID, "https://example.com", 0)
	require.NoError(t, err)

	resp, err := resty.New().R().Get(srv.URL + "/user/alice")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	body := string(resp.Body())
	assert.Contains(t, body, "https://example.com")
	assert.Contains(t, body, "<td>42</td>", "the page must show the synced visit count")
}

func TestGetUserPageKeepsStaleCountWhenProviderFails(t *testing.T) {
	// Fetcher without entries: every stats query fails.
	srv, db := newTestServer(t, &stubFetcher{})

	usr, err := db.CreateUser(context.Background(), "alice", "alice@x.com")
	require.NoError(t, err)
	_, err = db.CreateLink(context.Background(), usr.ID, "https://example.com", 5)
	require.NoError(t, err)

	resp, err := resty.New().R().Get(srv.URL + "/user/alice")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "<td>5</td>", "a failed sync must leave the stored count visible")
}

func TestGetUserPageNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	resp, err := resty.New().R().Get(srv.URL + "/user/bob")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "User not found")
}

func TestGetAllStats(t *testing.T) {
	fetcher := &stubFetcher{visitsByURL: map[string]int64{
		"https://example.com": 100,
	}}
	srv, db := newTestServer(t, fetcher)

	alice, err := db.CreateUser(context.Background(), "alice", "alice@x.com")
	require.NoError(t, err)
	bob, err := db.CreateUser(context.Background(), "bob", "bob@x.com")
	require.NoError(t, err)

	_, err = db.CreateLink(context.Background(), alice.ID, "https://example.com", 0)
	require.NoError(t, err)
	// bob's link has no live stats and must fall back to the stored count.
	_, err = db.CreateLink(context.Background(), bob.ID, "https://example.org", 8)
	require.NoError(t, err)

	resp, err := resty.New().R().Get(srv.URL + "/all-stats")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	body := string(resp.Body())
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "<td>100</td>")
	assert.Contains(t, body, "bob")
	assert.Contains(t, body, "<td>8</td>")
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	resp, err := resty.New().R().Get(srv.URL + "/static/style.css")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "font-family")
}

func TestGetPing(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{})

	resp, err := resty.New().R().Get(srv.URL + "/ping")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
}
