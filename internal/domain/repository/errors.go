package repository

import "errors"

var (
	// ErrSeriesNotFound is returned when a series slug or id cannot be resolved.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrEpisodeNotFound is returned when an episode cannot be found.
	ErrEpisodeNotFound = errors.New("episode not found")

	// ErrCategoryNotFound is returned when a category cannot be found.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrAssetAlreadyRegistered is returned when registering an asset for an
	// episode that already carries a finalized asset.
	ErrAssetAlreadyRegistered = errors.New("episode asset already registered")

	// ErrAssetNotUploaded is returned when the referenced media object does
	// not exist in the asset store. Maps to a failed-precondition response.
	ErrAssetNotUploaded = errors.New("media asset not uploaded")

	// ErrBucketNotFound is returned when the configured asset bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInvalidCursor is returned when a caller-supplied pagination cursor
	// cannot be decoded. Maps to a bad-request response, not a server error.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)
