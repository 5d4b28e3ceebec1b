// Package blobstore defines the key-value persistence boundary used for
// whole-collection serialization. Values are opaque byte blobs; callers own
// the encoding.
package blobstore

import (
	"context"
	"fmt"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, err error)
	Set(ctx context.Context, key string, value []byte) (err error)
	Delete(ctx context.Context, key string) (err error)
}

type KeyNotFoundError struct {
	Key string
}

func (err KeyNotFoundError) Error() string {
	return fmt.Sprintf("blob with key %q not found", err.Key)
}
