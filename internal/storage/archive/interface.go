// internal/storage/archive/interface.go

// Package archive stores finished reports on the local filesystem or in an
// S3-compatible bucket.
package archive

import "context"

// Storage is a report sink
type Storage interface {
	// Write stores data at the given path. A reader never observes a
	// partially written object.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Location describes where path is stored, for humans
	Location(path string) string
}

// Output types accepted by New
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// New opens the sink named by kind. localPath is the base directory of a
// local sink.
func New(kind, localPath string, s3cfg S3Config) (Storage, error) {
	switch kind {
	case "", TypeLocal:
		return NewLocalFS(localPath)
	case TypeS3:
		return NewS3(s3cfg)
	default:
		return nil, &UnknownTypeError{Type: kind}
	}
}

// UnknownTypeError reports an unsupported output type
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return "unknown archive type " + e.Type
}
