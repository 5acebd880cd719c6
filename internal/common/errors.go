package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorUsernameExists = errors.New("username already exists")
	ErrorEmailExists    = errors.New("email already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Auth errors. ErrorInvalidCredentials deliberately covers both
	// "unknown user" and "wrong password" so callers cannot tell them apart.
	ErrorInvalidCredentials = errors.New("invalid username or password")
	ErrorPrincipalNotFound  = errors.New("principal not found")

	// Token lifecycle errors. All three reject the request the same way;
	// they exist so logs can tell why a token was refused.
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)
