// Package storage downloads audio objects from remote object stores.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the object does not exist.
var ErrNotFound = errors.New("object not found")

// Object is a fully read remote object.
type Object struct {
	Body               []byte
	ContentType        string
	ContentDisposition string
}

// ObjectStore reads objects addressed by bucket and key.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) (*Object, error)
	Name() string
}
