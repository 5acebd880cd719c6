package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and verifies salted one-way password digests.
type PasswordHasher interface {
	// Hash returns a salted digest of the plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether the plaintext password matches the digest.
	Verify(password string, digest string) bool
}

// DummyDigest is a syntactically valid bcrypt digest verified against when
// a login names an unknown user, so that path costs the same as a real
// verification. It is not a credential; the lookup failure alone already
// fails the login.
const DummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. A cost below
// bcrypt.MinCost selects bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify returns false both on mismatch and on a malformed stored digest;
// a malformed digest is a deployment problem and must not become a
// distinct caller-visible outcome.
func (h *BcryptHasher) Verify(password string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
