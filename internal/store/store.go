// Package store abstracts the single "user record" storage capability behind
// one interface with two interchangeable backends: a MongoDB collection and a
// hosted REST collection (crudcrud-style). Exactly one backend is active per
// deployment; the two are never reconciled with each other.
package store

import (
	"context"

	"userflow-backend/internal/models"
)

// Store is the record store adapter contract. All lookups key on the
// store-assigned opaque ID except GetByEmail, which exists for signup/login.
type Store interface {
	// Create persists a new user and assigns its ID. Returns
	// shared.ErrConflict when the email is already taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user or shared.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail returns the user or shared.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update merges the patch into the stored record (absent fields keep
	// their prior values) and returns the updated record.
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)

	// Delete removes the record. Deleting a missing record returns
	// shared.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all users. The hosted backend has no query support, so
	// this is also what its email lookup is built on.
	List(ctx context.Context) ([]models.User, error)
}

// Forwarder pushes an updated record to a secondary external store for
// synchronization. The push is best-effort: callers log failures and move on,
// there is no compensating action.
type Forwarder interface {
	Forward(ctx context.Context, user models.User) error
}
