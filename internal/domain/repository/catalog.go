package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
)

// FeedQuery holds the normalized parameters of one feed request.
// Identical normalized queries must map to identical cache keys, so every
// field here participates in key construction.
type FeedQuery struct {
	Limit        int
	Cursor       string
	CategorySlug string
}

// RelatedSeries is one related-series candidate as declared by the catalog,
// before trending tie-breaks are applied.
type RelatedSeries struct {
	Summary        model.SeriesSummary
	SharedContexts int
}

// RegisterAssetInput describes a finalized media asset being attached to an
// episode by an upstream processing pipeline.
type RegisterAssetInput struct {
	EpisodeID   uuid.UUID
	PlaybackKey string
	DurationSec int
}

// CatalogService is the system-of-record query layer. Implementations are
// provided by the infrastructure layer (PostgreSQL).
type CatalogService interface {
	// ListFeed returns one page of feed items plus the series referenced by
	// those items, ordered by publish time descending.
	ListFeed(ctx context.Context, q FeedQuery) (*model.FeedPage, error)

	// GetSeriesDetailBySlug retrieves a series with its seasons and
	// standalone episodes. Returns ErrSeriesNotFound when the slug does not
	// resolve.
	GetSeriesDetailBySlug(ctx context.Context, slug string) (*model.SeriesDetail, error)

	// ListRelatedSeries returns series sharing categories with the named
	// series, most shared contexts first. Returns ErrSeriesNotFound when the
	// slug does not resolve.
	ListRelatedSeries(ctx context.Context, slug string, limit int) ([]RelatedSeries, error)

	// ListCategories returns all browsable categories ordered by name.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// GetCategoryByID retrieves one category. Returns ErrCategoryNotFound
	// when the id does not resolve.
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error)

	// RegisterEpisodeAsset attaches a finalized media asset to an episode.
	// Returns ErrEpisodeNotFound when the episode does not exist and
	// ErrAssetAlreadyRegistered when it already carries an asset.
	RegisterEpisodeAsset(ctx context.Context, actorID uuid.UUID, input RegisterAssetInput) error
}
