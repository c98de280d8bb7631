// Package models defines the domain entities shared between the storage
// backends, the sync routine and the HTTP layer.
package models

import (
	"errors"
	"time"
)

// User is a registered account. Username and email are unique across all
// users; both constraints are enforced by every storage backend.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// Link is a tracked URL owned by exactly one user. URLs are not unique:
// several links may track the same address.
type Link struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	URL         string    `json:"url" validate:"required,url"`
	Visits      int64     `json:"visits"`
	LastVisited time.Time `json:"last_visited"`
}

// OwnedLink pairs a link with its resolved owner for the aggregate view.
type OwnedLink struct {
	Link  Link
	Owner User
}

// LinkStats is one row of the aggregate stats view.
type LinkStats struct {
	Username string
	URL      string
	Visits   int64
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrDuplicateUser is returned when a username or email is already taken.
var ErrDuplicateUser = errors.New("username or email already registered")

// ErrUserNotFound is returned by user lookups that match no record.
var ErrUserNotFound = errors.New("user not found")

// ErrUnknownOwner is returned when a link references a nonexistent user.
var ErrUnknownOwner = errors.New("link owner does not exist")
