package objectstore

import "github.com/gear6io/parity/pkg/errors"

var (
	ErrUnknownType    = errors.MustNewCode("objectstore.unknown_type")
	ErrClientFailed   = errors.MustNewCode("objectstore.client_failed")
	ErrBucketFailed   = errors.MustNewCode("objectstore.bucket_failed")
	ErrBucketNotFound = errors.MustNewCode("objectstore.bucket_not_found")
	ErrPutFailed      = errors.MustNewCode("objectstore.put_failed")
	ErrGetFailed      = errors.MustNewCode("objectstore.get_failed")
	ErrListFailed     = errors.MustNewCode("objectstore.list_failed")
	ErrObjectNotFound = errors.MustNewCode("objectstore.object_not_found")
)
