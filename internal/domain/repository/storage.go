package repository

import (
	"context"
	"time"
)

// AssetStorage defines the interface for the media asset object store.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type AssetStorage interface {
	// Exists checks whether a finalized media object is present under key.
	// Used to gate asset registration on the object actually being uploaded.
	Exists(ctx context.Context, key string) (bool, error)

	// GeneratePresignedPlaybackURL creates a presigned URL for streaming a
	// finalized asset. The URL is valid for the specified duration.
	GeneratePresignedPlaybackURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes an object from the storage.
	Delete(ctx context.Context, key string) error
}
