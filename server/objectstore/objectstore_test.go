package objectstore

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeS3 starts an in-process S3 endpoint and returns a config that
// points at it
func newFakeS3(t *testing.T, createBucket bool) *config.ObjectStoreConfig {
	t.Helper()
	faker := gofakes3.New(s3mem.New())
	ts := httptest.NewServer(faker.Server())
	t.Cleanup(ts.Close)

	return &config.ObjectStoreConfig{
		Type:         config.ObjectStoreMinIO,
		Endpoint:     ts.URL,
		Bucket:       "artifacts",
		AccessKey:    "test",
		SecretKey:    "test-secret",
		Region:       "us-east-1",
		CreateBucket: createBucket,
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))

	require.NoError(t, s.Put(ctx, "output/patients.parquet", []byte("v1")))
	require.NoError(t, s.Put(ctx, "output/visits.parquet", []byte("visits")))
	require.NoError(t, s.Put(ctx, "other/patients.parquet", []byte("x")))

	got, err := s.Get(ctx, "output/patients.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Put(ctx, "output/patients.parquet", []byte("v2")))
	got, err = s.Get(ctx, "output/patients.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got, "put overwrites")

	keys, err := s.List(ctx, "output/")
	require.NoError(t, err)
	assert.Equal(t, []string{"output/patients.parquet", "output/visits.parquet"}, keys)

	keys, err = s.List(ctx, "output/patients.parquet")
	require.NoError(t, err)
	assert.Equal(t, []string{"output/patients.parquet"}, keys)

	keys, err = s.List(ctx, "missing/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = s.Get(ctx, "output/ghost.parquet")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrObjectNotFound))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory("artifacts"))
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("artifacts")

	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	m.Remove("k")
	_, err = m.Get(ctx, "k")
	assert.True(t, errors.HasCode(err, ErrObjectNotFound))
}

func TestMinIOStore(t *testing.T) {
	cfg := newFakeS3(t, true)

	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "artifacts", s.Bucket())

	exerciseStore(t, s)
}

func TestMinIOMissingBucket(t *testing.T) {
	cfg := newFakeS3(t, false)

	s, err := NewMinIO(cfg, zerolog.Nop())
	require.NoError(t, err)

	err = s.EnsureBucket(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrBucketNotFound))
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(&config.ObjectStoreConfig{Type: "gcs", Bucket: "b"}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnknownType))
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		host     string
		secure   bool
	}{
		{"localhost:9000", false, "localhost:9000", false},
		{"127.0.0.1:9000", true, "127.0.0.1:9000", true},
		{"http://minio:9000", true, "minio:9000", false},
		{"https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
	}
	for _, tt := range tests {
		host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
		assert.Equal(t, tt.host, host, tt.endpoint)
		assert.Equal(t, tt.secure, secure, tt.endpoint)
	}
}
