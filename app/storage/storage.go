// Package storage keeps uploaded card images on the local filesystem or in
// an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when no object has the requested name.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("invalid image name")
)

// Object is an opened image. Callers must Close it.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// Store defines the operations on stored images. Names are flat: a single
// path element such as "3f0c...e1.png".
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (*Object, error)
	// Delete removes the image. Deleting a missing image is not an error.
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Config holds storage configuration
type Config struct {
	Driver string // local or s3

	Dir string // local

	Endpoint  string // s3
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New creates a store for cfg.Driver.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.Dir)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// CleanName validates that name is a single, non-hidden path element.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return name, nil
}
