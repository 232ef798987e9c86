package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIO talks to any S3 compatible endpoint with path-style addressing
type MinIO struct {
	client       *minio.Client
	bucket       string
	region       string
	createBucket bool
	logger       zerolog.Logger
}

// NewMinIO creates a client for cfg.Endpoint. The endpoint may carry an
// http:// or https:// scheme, which then overrides UseSSL.
func NewMinIO(cfg *config.ObjectStoreConfig, logger zerolog.Logger) (*MinIO, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, errors.New(ErrClientFailed, "failed to create object store client", err).AddContext("endpoint", cfg.Endpoint)
	}

	return &MinIO{
		client:       client,
		bucket:       cfg.Bucket,
		region:       cfg.Region,
		createBucket: cfg.CreateBucket,
		logger:       logger.With().Str("component", "objectstore").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(endpoint, "/"), useSSL
	}
	return u.Host, u.Scheme == "https"
}

func (s *MinIO) Bucket() string {
	return s.bucket
}

func (s *MinIO) Put(ctx context.Context, key string, data []byte) error {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return errors.New(ErrPutFailed, "failed to upload object", err).
			AddContext("bucket", s.bucket).AddContext("key", key)
	}

	s.logger.Debug().Str("key", key).Int64("size", info.Size).Str("etag", info.ETag).Msg("Object uploaded")
	return nil
}

func (s *MinIO) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.getError(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.getError(err, key)
	}
	return data, nil
}

func (s *MinIO) getError(err error, key string) error {
	code := ErrGetFailed
	msg := "failed to download object"
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		code = ErrObjectNotFound
		msg = "object not found"
	}
	return errors.New(code, msg, err).AddContext("bucket", s.bucket).AddContext("key", key)
}

func (s *MinIO) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.New(ErrListFailed, "failed to list objects", obj.Err).
				AddContext("bucket", s.bucket).AddContext("prefix", prefix)
		}
		keys = append(keys, obj.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

// EnsureBucket verifies the bucket exists and creates it when the store is
// configured to
func (s *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.New(ErrBucketFailed, "failed to check bucket", err).AddContext("bucket", s.bucket)
	}
	if exists {
		return nil
	}
	if !s.createBucket {
		return errors.New(ErrBucketNotFound, "bucket does not exist", nil).AddContext("bucket", s.bucket)
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return errors.New(ErrBucketFailed, "failed to create bucket", err).AddContext("bucket", s.bucket)
	}
	s.logger.Info().Msg("Bucket created")
	return nil
}
