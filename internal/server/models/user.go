// Package models contains the persisted entities of the AuthKeeper server.
package models

import (
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Role is the authorization level assigned to a user account.
// Registration only ever assigns RoleUser; elevated accounts are
// provisioned out-of-band.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Authority renders the role as a granted-authority string, e.g. "ROLE_USER".
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// User is an account record in the users table. PasswordHash always holds
// a bcrypt digest, never the plaintext.
type User struct {
	ID           int64
	UserName     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Username validation constraints.
const (
	MinUserNameLength = 3
	MaxUserNameLength = 30
	MinPasswordLength = 8
)

// userNameRegex matches usernames that start with a letter and contain
// only letters, digits, and underscores. Usernames are case-sensitive.
var userNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateUserName checks username length and character rules.
func ValidateUserName(userName string) error {
	if len(userName) < MinUserNameLength {
		return fmt.Errorf("%w: username must be at least %d characters", common.ErrorValidation, MinUserNameLength)
	}
	if len(userName) > MaxUserNameLength {
		return fmt.Errorf("%w: username must be at most %d characters", common.ErrorValidation, MaxUserNameLength)
	}
	if !userNameRegex.MatchString(userName) {
		return fmt.Errorf("%w: username must start with a letter and contain only letters, digits, and underscores", common.ErrorValidation)
	}
	return nil
}

// ValidateEmail checks that email is a well-formed single address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return nil
}

// ValidatePassword checks the minimum password length. Composition rules
// are deliberately not enforced.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	return nil
}
