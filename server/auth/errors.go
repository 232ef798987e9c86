package auth

import "github.com/gear6io/parity/pkg/errors"

var (
	ErrNotAuthenticated = errors.MustNewCode("auth.not_authenticated")
	ErrInvalidToken     = errors.MustNewCode("auth.invalid_token")
	ErrEmptyTokenSet    = errors.MustNewCode("auth.empty_token_set")
)
