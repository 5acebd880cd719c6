// Package users provides persistence for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the credential store the authentication core consumes.
// Uniqueness of username and email is enforced by the store itself; Create
// surfaces a late-discovered collision as common.ErrorUsernameExists or
// common.ErrorEmailExists.
type Repository interface {
	// Create stores a new user, assigning ID and timestamps.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUserName returns the user with the given username, or
	// common.ErrorNotFound.
	GetByUserName(ctx context.Context, userName string) (*models.User, error)

	// ExistsByUserName reports whether a user with the given username exists.
	ExistsByUserName(ctx context.Context, userName string) (bool, error)

	// ExistsByEmail reports whether a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
