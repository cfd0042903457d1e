package user

import "context"

// Directory defines the persistence contract for users.
type Directory interface {
	// FindByID retrieves a user by internal identifier.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByExternalID resolves a user by the chat transport's stable handle.
	FindByExternalID(ctx context.Context, externalID int64) (*User, error)

	// Create persists a new user and backfills the assigned id. Creating an
	// already-registered external id is a ConflictError.
	Create(ctx context.Context, u *User) error
}
