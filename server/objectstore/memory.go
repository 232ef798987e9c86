package objectstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gear6io/parity/pkg/errors"
)

// Memory keeps objects in a map. It backs tests and dry runs that should not
// need a running object store.
type Memory struct {
	bucket string
	data   map[string][]byte
	mu     sync.RWMutex
}

// NewMemory creates an empty in-memory bucket
func NewMemory(bucket string) *Memory {
	return &Memory{
		bucket: bucket,
		data:   make(map[string][]byte),
	}
}

func (m *Memory) Bucket() string {
	return m.bucket
}

// Put stores a copy of data so callers may reuse their buffer
func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.New(ErrPutFailed, "put cancelled", err).AddContext("key", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(ErrGetFailed, "get cancelled", err).AddContext("key", key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.data[key]
	if !exists {
		return nil, errors.New(ErrObjectNotFound, "object not found", nil).
			AddContext("bucket", m.bucket).AddContext("key", key)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(ErrListFailed, "list cancelled", err).AddContext("prefix", prefix)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Remove deletes key. Removing a missing key is a no-op.
func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
}

// EnsureBucket is a no-op, the bucket exists from construction
func (m *Memory) EnsureBucket(ctx context.Context) error {
	return nil
}
