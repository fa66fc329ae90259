package storage

import (
	"context"
	"io"
)

// FileStorage is the blob store that selfie evidence is written to
type FileStorage interface {
	// Upload stores a file and returns its cleaned path/key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// GetURL returns the public URL of a stored file
	GetURL(ctx context.Context, path string) (string, error)

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}
