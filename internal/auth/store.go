package auth

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and GetByEmail when the requested user
// does not exist.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned by Create when a user with the same ID or
// email already exists.
var ErrDuplicate = errors.New("user already exists")

// Store persists user accounts.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new user. A user without an ID gets one
	// auto-generated; the created user is returned.
	// Returns [ErrDuplicate] if the ID or email is already taken.
	Create(ctx context.Context, u User) (User, error)

	// Get retrieves a user by ID.
	// Returns [ErrNotFound] when no user with that ID exists.
	Get(ctx context.Context, id string) (User, error)

	// GetByEmail retrieves a user by lowercased email.
	// Returns [ErrNotFound] when no user with that email exists.
	GetByEmail(ctx context.Context, email string) (User, error)

	// Delete removes a user by ID.
	// Returns [ErrNotFound] when no user with that ID exists.
	Delete(ctx context.Context, id string) error

	// List returns all users ordered by email.
	List(ctx context.Context) ([]User, error)
}
