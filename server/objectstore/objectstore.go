// Package objectstore stores exported artifacts under flat keys in a bucket.
package objectstore

import (
	"context"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/rs/zerolog"
)

// Store is a bucket of objects addressed by key
type Store interface {
	// Put writes data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object under key. A missing key is ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns every key starting with prefix, in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// EnsureBucket creates the bucket if it is missing
	EnsureBucket(ctx context.Context) error

	Bucket() string
}

// New builds the store configured in cfg
func New(cfg *config.ObjectStoreConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case config.ObjectStoreMinIO:
		return NewMinIO(cfg, logger)
	case config.ObjectStoreMemory:
		return NewMemory(cfg.Bucket), nil
	}
	return nil, errors.New(ErrUnknownType, "unknown object store type", nil).AddContext("type", cfg.Type)
}
