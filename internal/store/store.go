package store

import "context"

// Store defines the interface for the local upload journal
type Store interface {
	// Definition operations
	RecordDefinition(ctx context.Context, d *Definition) error
	GetDefinition(ctx context.Context, name string) (*Definition, error)
	ListDefinitions(ctx context.Context) ([]*Definition, error)

	// Upload operations
	RecordUpload(ctx context.Context, u *Upload) error
	ListUploads(ctx context.Context, conversionName string) ([]*Upload, error)
	GetUploadStats(ctx context.Context) ([]UploadStats, error)

	// Lifecycle
	Close() error
}
