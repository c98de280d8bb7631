// Package jsondb is a file-backed storage implementation. All records live
// in an in-memory cache guarded by a mutex and are flushed to a JSON file
// on Close. It is meant for local development and tests.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/linktrack/internal/models"
)

// JSONDB keeps users and links in memory and persists them as a single
// JSON document.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the serialized layout of the database file.
type CacheStruct struct {
	Users map[string]models.User
	Links map[string]models.Link
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"Links": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

// New opens (or creates) the database file and loads it into the cache.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}

	if db.Cache.Users == nil {
		db.Cache.Users = map[string]models.User{}
	}
	if db.Cache.Links == nil {
		db.Cache.Links = map[string]models.Link{}
	}

	return &db, nil
}

// CreateUser inserts a new user, enforcing username and email uniqueness.
func (db *JSONDB) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.Cache.Users {
		if existing.Username == username || existing.Email == email {
			return nil, models.ErrDuplicateUser
		}
	}

	usr := models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
	}
	db.Cache.Users[usr.ID] = usr

	return &usr, nil
}

// FindUserByUsername returns the user with the given username
// or models.ErrUserNotFound.
func (db *JSONDB) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, usr := range db.Cache.Users {
		if usr.Username == username {
			found := usr
			return &found, nil
		}
	}

	return nil, models.ErrUserNotFound
}

// FindUserByID returns the user with the given ID or models.ErrUserNotFound.
func (db *JSONDB) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, models.ErrUserNotFound
	}

	return &usr, nil
}

// CreateLink inserts a new link for an existing owner. The owner existence
// check stands in for the referential integrity a relational backend gets
// from its schema.
func (db *JSONDB) CreateLink(ctx context.Context, ownerID, url string, initialVisits int64) (*models.Link, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, found := db.Cache.Users[ownerID]; !found {
		return nil, models.ErrUnknownOwner
	}

	link := models.Link{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		URL:         url,
		Visits:      initialVisits,
		LastVisited: time.Now(),
	}
	db.Cache.Links[link.ID] = link

	return &link, nil
}

// FindLinksByOwner returns every link owned by the given user.
func (db *JSONDB) FindLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	links := funk.Filter(funk.Values(db.Cache.Links), func(link models.Link) bool {
		return link.OwnerID == ownerID
	}).([]models.Link)

	return links, nil
}

// FindAllLinksWithOwners returns every link paired with its owner.
func (db *JSONDB) FindAllLinksWithOwners(ctx context.Context) ([]models.OwnedLink, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]models.OwnedLink, 0, len(db.Cache.Links))
	for _, link := range db.Cache.Links {
		owner, found := db.Cache.Users[link.OwnerID]
		if !found {
			return nil, models.ErrUnknownOwner
		}
		result = append(result, models.OwnedLink{Link: link, Owner: owner})
	}

	return result, nil
}

// UpdateLinkVisits overwrites the visit count and last-visited timestamp
// of the given link. Updating a missing link is a no-op.
func (db *JSONDB) UpdateLinkVisits(ctx context.Context, linkID string, visits int64, visitedAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	link, found := db.Cache.Links[linkID]
	if !found {
		return nil
	}

	link.Visits = visits
	link.LastVisited = visitedAt
	db.Cache.Links[linkID] = link

	return nil
}

// Ping is a no-op for the file backend.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache to the database file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
