// Package repository holds upload sessions: the dataset a viewer loaded plus
// enough metadata to find and expire it.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/onbscore/internal/domain/dataset"
)

// Session is one uploaded spreadsheet owned by the identity that loaded it.
type Session struct {
	ID        string
	Owner     string
	FileName  string
	Format    string
	Dataset   *dataset.Dataset
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) validate() error {
	if s == nil || s.ID == "" || s.Dataset == nil {
		return fmt.Errorf("%w: id and dataset are required", ErrInvalidSession)
	}
	return nil
}

// Store provides access to sessions. Implementations treat expired sessions
// as absent.
type Store interface {
	// Put stores s, replacing any session with the same ID. ExpiresAt is
	// set from the store's TTL when zero.
	Put(ctx context.Context, s *Session) error

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes the session or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Close releases the store's resources.
	Close() error
}
