// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login with uniform credential
// errors, and recovering the authenticated principal from a bearer token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// RegisterRequest carries the registration input. Password is plaintext
// here and nowhere past the hasher.
type RegisterRequest struct {
	UserName    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// AuthResult bundles a freshly minted bearer token with the account it is
// bound to.
type AuthResult struct {
	Token     string
	TokenType string
	User      *models.User
}

// UserService provides the authentication core:
// - Register: uniqueness checks, hash, persist, issue token
// - Login: verify credentials and mint a token
// - ResolveToken: token to account, for protected endpoints
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	hasher                auth.PasswordHasher
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h auth.PasswordHasher, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		hasher:                h,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates an account and issues its first token. Username is
// checked before email, and the username check short-circuits. The store's
// unique constraints back the check-then-act sequence: a concurrent insert
// that slips past the pre-checks surfaces from Create as the same
// duplicate errors.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {

	if err := models.ValidateUserName(req.UserName); err != nil {
		return nil, err
	}
	if err := models.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	// Hashing is deliberately slow; keep it outside the transaction.
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Role:         models.RoleUser,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByUserName(ctx, req.UserName)
		if err != nil {
			return fmt.Errorf("error checking username: %w", err)
		}
		if exists {
			return common.ErrorUsernameExists
		}

		exists, err = repo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("error checking email: %w", err)
		}
		if exists {
			return common.ErrorEmailExists
		}

		user, err = repo.Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrorUsernameExists) || errors.Is(err, common.ErrorEmailExists) {
				return err
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login verifies credentials and issues a token. An unknown username and a
// wrong password both return common.ErrorInvalidCredentials; the unknown
// path still runs a verification against a dummy digest so both cost
// about the same.
func (s *UserService) Login(ctx context.Context, userName string, password string) (*AuthResult, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, auth.DummyDigest)
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	return s.issueToken(user)
}

// ResolveToken validates a bearer token and returns the account it is bound
// to. A valid token whose account has since disappeared yields
// common.ErrorPrincipalNotFound.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {

	info, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUserName(ctx, info.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorPrincipalNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	return user, nil
}

func (s *UserService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.UserName, string(user.Role), s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &AuthResult{Token: token, TokenType: common.TokenTypeBearer, User: user}, nil
}
