package http

import "github.com/gear6io/parity/pkg/errors"

var (
	ErrListenFailed   = errors.MustNewCode("http.listen_failed")
	ErrShutdownFailed = errors.MustNewCode("http.shutdown_failed")
	ErrMissingTokens  = errors.MustNewCode("http.missing_tokens")
	ErrMissingRecords = errors.MustNewCode("http.missing_repository")
)
