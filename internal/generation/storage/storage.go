// Package storage declares persistence contracts for generation sessions.
//
// The in-memory registry is the source of truth while a session is running;
// records land here once a session reaches a terminal state so results stay
// retrievable after registry eviction or a process restart.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// SessionRecord is a durable snapshot of a generation session.
type SessionRecord struct {
	ID          string
	OwnerID     int64
	State       string
	Progress    int
	Mechanic    string
	Theme       string
	Language    string
	ErrorDetail string
	ArchivePath string
	PreviewPath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionStore persists session records.
type SessionStore interface {
	// PutSession inserts or replaces a record keyed by SessionRecord.ID.
	PutSession(ctx context.Context, record SessionRecord) error
	// GetSession returns a record by id, or ErrNotFound.
	GetSession(ctx context.Context, sessionID string) (SessionRecord, error)
	// ListSessionsByOwner returns up to limit records for an owner, newest
	// first. A non-positive limit applies the store default.
	ListSessionsByOwner(ctx context.Context, ownerID int64, limit int) ([]SessionRecord, error)
}
