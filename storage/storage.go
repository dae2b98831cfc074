//go:generate mockgen -source=$GOFILE -destination=mock_$GOPACKAGE/mock_$GOFILE
package storage

import (
	"context"
	"errors"
)

// ErrFileNotFound the key does not exist in the storage
var ErrFileNotFound = errors.New("not found")

// ImageStorage stores report and profile pictures
type ImageStorage interface {
	// Save writes body under key and returns the public URL
	Save(ctx context.Context, key, contentType string, body []byte) (string, error)
	// Delete removes key. Deleting a missing key returns ErrFileNotFound.
	Delete(ctx context.Context, key string) error
}
