package store

import (
	"context"
	"time"
)

// User represents a registered or guest account. Chat state (messages,
// membership, presence) is deliberately not persisted; only identities
// survive a restart.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsGuest      bool
	SessionID    string // For guest user session tracking
	CreatedAt    time.Time
}

// UserStore provides user persistence operations.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	Close() error
}
