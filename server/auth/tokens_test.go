package auth

import (
	"testing"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTokenSet(t *testing.T) {
	set := DefaultTokenSet()
	assert.Equal(t, []string{RoleAdmin, RoleDoctor, RoleNurse}, set.Roles())

	for _, role := range set.Roles() {
		token, ok := set.Token(role)
		require.True(t, ok)
		assert.Equal(t, "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9."+role, token)

		got, err := set.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, role, got)
	}
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	_, err := DefaultTokenSet().Verify("invalid_token_123")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidToken))
	assert.True(t, errors.HasCategory(err, errors.CategoryAuth))
}

func TestNewTokenSet(t *testing.T) {
	set, err := NewTokenSet(map[string]string{"auditor": "secret", "intern": ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"auditor"}, set.Roles())

	_, err = NewTokenSet(map[string]string{"intern": ""})
	assert.True(t, errors.HasCode(err, ErrEmptyTokenSet))

	_, err = NewTokenSet(nil)
	assert.True(t, errors.HasCode(err, ErrEmptyTokenSet))
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"bearer", "Bearer abc", "abc", true},
		{"lowercase scheme", "bearer abc", "abc", true},
		{"missing", "", "", false},
		{"no scheme", "InvalidTokenFormat", "", false},
		{"basic", "Basic dXNlcjpwYXNz", "", false},
		{"empty credentials", "Bearer   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ParseBearer(tt.header)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, ErrNotAuthenticated))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	set := DefaultTokenSet()

	role, err := set.Authenticate("Bearer eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9.nurse")
	require.NoError(t, err)
	assert.Equal(t, RoleNurse, role)

	_, err = set.Authenticate("Bearer nope")
	assert.True(t, errors.HasCode(err, ErrInvalidToken))

	_, err = set.Authenticate("nope")
	assert.True(t, errors.HasCode(err, ErrNotAuthenticated))
}
