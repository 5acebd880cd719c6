// Package common contains shared constants and sentinel errors used across
// AuthKeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// TokenTypeBearer is the token type echoed in auth responses.
const TokenTypeBearer = "Bearer"
