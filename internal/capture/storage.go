// Package capture stores raw source pages so selector changes can be
// replayed against real markup.
package capture

import (
	"context"
	"errors"
	"io"
)

var (
	ErrUnknownStorage = errors.New("unknown capture storage")
	ErrNotFound       = errors.New("capture not found")
)

// Storage keeps captured pages under slash-separated keys. Open returns an
// error wrapping ErrNotFound for a missing key; Delete of a missing key is
// not an error.
type Storage interface {
	Save(ctx context.Context, key string, body io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
