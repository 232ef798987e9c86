package auth

import (
	"crypto/subtle"
	"sort"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
)

// Roles accepted by the default token set
const (
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleAdmin  = "admin"
)

const (
	legacyTokenPrefix = "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9."
	bearerScheme      = "Bearer"
)

// TokenSet maps a role to the opaque bearer token that grants it.
// All roles have the same access.
type TokenSet struct {
	tokens map[string]string
}

// NewTokenSet builds a token set from a role to token map. Roles with an
// empty token are skipped.
func NewTokenSet(tokens map[string]string) (*TokenSet, error) {
	set := &TokenSet{tokens: make(map[string]string, len(tokens))}
	for role, token := range tokens {
		if token == "" {
			continue
		}
		set.tokens[role] = token
	}
	if len(set.tokens) == 0 {
		return nil, errors.New(ErrEmptyTokenSet, "token set has no usable tokens", nil)
	}
	return set, nil
}

// DefaultTokenSet returns the doctor, nurse and admin tokens
func DefaultTokenSet() *TokenSet {
	set, _ := NewTokenSet(DefaultTokens())
	return set
}

// DefaultTokens returns a fresh copy of the default role to token map
func DefaultTokens() map[string]string {
	return map[string]string{
		RoleDoctor: legacyTokenPrefix + RoleDoctor,
		RoleNurse:  legacyTokenPrefix + RoleNurse,
		RoleAdmin:  legacyTokenPrefix + RoleAdmin,
	}
}

// Roles returns the configured roles in sorted order
func (s *TokenSet) Roles() []string {
	roles := make([]string, 0, len(s.tokens))
	for role := range s.tokens {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Token returns the token configured for role
func (s *TokenSet) Token(role string) (string, bool) {
	token, ok := s.tokens[role]
	return token, ok
}

// Verify returns the role owning token, or ErrInvalidToken
func (s *TokenSet) Verify(token string) (string, error) {
	for _, role := range s.Roles() {
		if subtle.ConstantTimeCompare([]byte(s.tokens[role]), []byte(token)) == 1 {
			return role, nil
		}
	}
	return "", errors.New(ErrInvalidToken, "Invalid authentication token", nil)
}

// ParseBearer extracts the credentials from an Authorization header value.
// A missing header, another scheme or empty credentials yield
// ErrNotAuthenticated.
func ParseBearer(header string) (string, error) {
	scheme, credentials, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", errors.New(ErrNotAuthenticated, "Not authenticated", nil)
	}
	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return "", errors.New(ErrNotAuthenticated, "Not authenticated", nil)
	}
	return credentials, nil
}

// Authenticate parses header and verifies its bearer token, returning the role
func (s *TokenSet) Authenticate(header string) (string, error) {
	token, err := ParseBearer(header)
	if err != nil {
		return "", err
	}
	return s.Verify(token)
}
