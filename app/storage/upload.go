package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for uploads that are not an accepted image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned for uploads over the size limit.
	ErrTooLarge = errors.New("image too large")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Upload is an accepted image ready to be saved.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reader returns a fresh reader over the image bytes.
func (u *Upload) Reader() io.Reader { return bytes.NewReader(u.Data) }

// Size is the image length in bytes.
func (u *Upload) Size() int64 { return int64(len(u.Data)) }

// PrepareUpload reads at most maxBytes from r, sniffs the content and
// assigns a random file name carrying the detected extension.
func PrepareUpload(r io.Reader, maxBytes int64) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrUnsupportedType
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	return &Upload{
		Name:        uuid.NewString() + mt.Extension(),
		ContentType: mt.String(),
		Data:        data,
	}, nil
}
