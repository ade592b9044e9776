package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CatalogRepository implements repository.CatalogService using PostgreSQL.
type CatalogRepository struct {
	db DBTX
}

// Compile-time verification that CatalogRepository implements repository.CatalogService.
var _ repository.CatalogService = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository instance.
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const feedItemColumns = `
	e.id, e.series_id, e.title, e.thumb_small, e.thumb_medium, e.thumb_large,
	e.duration_seconds, e.published_at, e.visibility, e.playback_key
`

// ListFeed returns one page of public feed items newest first, plus the
// series referenced by those items. Keyset pagination on (published_at, id).
func (r *CatalogRepository) ListFeed(ctx context.Context, q repository.FeedQuery) (*model.FeedPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		conds = []string{"e.visibility = 'PUBLIC'"}
		args  []any
	)

	if q.CategorySlug != "" {
		args = append(args, q.CategorySlug)
		conds = append(conds, fmt.Sprintf(`e.series_id IN (
			SELECT sc.series_id FROM series_categories sc
			JOIN categories c ON c.id = sc.category_id
			WHERE c.slug = $%d)`, len(args)))
	}

	if q.Cursor != "" {
		ts, id, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, fmt.Errorf("decode feed cursor: %w", err)
		}
		args = append(args, ts, id)
		conds = append(conds, fmt.Sprintf("(e.published_at, e.id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT %s
		FROM episodes e
		WHERE %s
		ORDER BY e.published_at DESC, e.id DESC
		LIMIT $%d
	`, feedItemColumns, strings.Join(conds, " AND "), len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	defer rows.Close()

	var items []model.FeedItem
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed items: %w", err)
	}

	page := &model.FeedPage{Series: map[string]model.SeriesRef{}}
	if len(items) > limit {
		last := items[limit-1]
		page.NextCursor = encodeCursor(last.PublishedAt, last.ContentID)
		items = items[:limit]
	}
	page.Items = items

	if err := r.loadSeriesRefs(ctx, page); err != nil {
		return nil, err
	}

	return page, nil
}

// loadSeriesRefs populates the page's series index for the series its items
// reference, so referential checks stay pure over the payload.
func (r *CatalogRepository) loadSeriesRefs(ctx context.Context, page *model.FeedPage) error {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, item := range page.Items {
		if item.SeriesID == nil {
			continue
		}
		if _, ok := seen[*item.SeriesID]; ok {
			continue
		}
		seen[*item.SeriesID] = struct{}{}
		ids = append(ids, *item.SeriesID)
	}
	if len(ids) == 0 {
		return nil
	}

	const query = `SELECT id, slug, title FROM series WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query series refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref model.SeriesRef
		if err := rows.Scan(&ref.ID, &ref.Slug, &ref.Title); err != nil {
			return fmt.Errorf("failed to scan series ref: %w", err)
		}
		page.Series[ref.ID.String()] = ref
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating series refs: %w", err)
	}

	return nil
}

// GetSeriesDetailBySlug retrieves a series with its ordered seasons and
// standalone episodes.
func (r *CatalogRepository) GetSeriesDetailBySlug(ctx context.Context, slug string) (*model.SeriesDetail, error) {
	const seriesQuery = `
		SELECT s.id, s.slug, s.title, s.description,
			COALESCE(array_agg(c.slug) FILTER (WHERE c.slug IS NOT NULL), '{}')
		FROM series s
		LEFT JOIN series_categories sc ON sc.series_id = s.id
		LEFT JOIN categories c ON c.id = sc.category_id
		WHERE s.slug = $1
		GROUP BY s.id, s.slug, s.title, s.description
	`

	detail := &model.SeriesDetail{}
	err := r.db.QueryRow(ctx, seriesQuery, slug).Scan(
		&detail.ID,
		&detail.Slug,
		&detail.Title,
		&detail.Description,
		&detail.CategoryIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to get series by slug: %w", err)
	}

	episodesQuery := fmt.Sprintf(`
		SELECT e.season_number, %s
		FROM episodes e
		WHERE e.series_id = $1 AND e.visibility <> 'HIDDEN'
		ORDER BY e.season_number ASC NULLS LAST, e.episode_number ASC NULLS LAST, e.published_at ASC, e.id ASC
	`, feedItemColumns)

	rows, err := r.db.Query(ctx, episodesQuery, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query series episodes: %w", err)
	}
	defer rows.Close()

	seasonIdx := map[int]int{}
	for rows.Next() {
		var seasonNumber *int
		item, err := scanFeedItemWith(rows, &seasonNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}

		if seasonNumber == nil {
			detail.Standalone = append(detail.Standalone, *item)
			continue
		}

		idx, ok := seasonIdx[*seasonNumber]
		if !ok {
			detail.Seasons = append(detail.Seasons, model.Season{Number: *seasonNumber})
			idx = len(detail.Seasons) - 1
			seasonIdx[*seasonNumber] = idx
		}
		detail.Seasons[idx].Episodes = append(detail.Seasons[idx].Episodes, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episodes: %w", err)
	}

	return detail, nil
}

// ListRelatedSeries returns series sharing categories with the named series,
// most shared categories first.
func (r *CatalogRepository) ListRelatedSeries(ctx context.Context, slug string, limit int) ([]repository.RelatedSeries, error) {
	if limit <= 0 {
		limit = 10
	}

	var seriesID uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM series WHERE slug = $1`, slug).Scan(&seriesID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to resolve series slug: %w", err)
	}

	const query = `
		SELECT s.id, s.slug, s.title, COALESCE(s.thumbnail, ''), COUNT(*) AS shared
		FROM series_categories own
		JOIN series_categories other
			ON other.category_id = own.category_id AND other.series_id <> own.series_id
		JOIN series s ON s.id = other.series_id
		WHERE own.series_id = $1
		GROUP BY s.id, s.slug, s.title, s.thumbnail
		ORDER BY shared DESC, s.slug ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, seriesID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related series: %w", err)
	}
	defer rows.Close()

	var related []repository.RelatedSeries
	for rows.Next() {
		var rel repository.RelatedSeries
		if err := rows.Scan(
			&rel.Summary.ID,
			&rel.Summary.Slug,
			&rel.Summary.Title,
			&rel.Summary.Thumbnail,
			&rel.SharedContexts,
		); err != nil {
			return nil, fmt.Errorf("failed to scan related series: %w", err)
		}
		rel.Summary.SharedContexts = rel.SharedContexts
		related = append(related, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating related series: %w", err)
	}

	return related, nil
}

// ListCategories returns all browsable categories ordered by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	const query = `
		SELECT c.id, c.slug, c.name, COUNT(sc.series_id)
		FROM categories c
		LEFT JOIN series_categories sc ON sc.category_id = c.id
		GROUP BY c.id, c.slug, c.name
		ORDER BY c.name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Slug, &cat.Name, &cat.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByID retrieves one category.
func (r *CatalogRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	const query = `
		SELECT c.id, c.slug, c.name, COUNT(sc.series_id)
		FROM categories c
		LEFT JOIN series_categories sc ON sc.category_id = c.id
		WHERE c.id = $1
		GROUP BY c.id, c.slug, c.name
	`

	var cat model.Category
	err := r.db.QueryRow(ctx, query, id).Scan(&cat.ID, &cat.Slug, &cat.Name, &cat.ItemCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}

	return &cat, nil
}

// RegisterEpisodeAsset attaches a finalized asset to an episode that does
// not already carry one.
func (r *CatalogRepository) RegisterEpisodeAsset(ctx context.Context, actorID uuid.UUID, input repository.RegisterAssetInput) error {
	const query = `
		UPDATE episodes
		SET playback_key = $2, duration_seconds = $3, asset_registered_by = $4, updated_at = $5
		WHERE id = $1 AND playback_key IS NULL
	`

	tag, err := r.db.Exec(ctx, query,
		input.EpisodeID,
		input.PlaybackKey,
		input.DurationSec,
		actorID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to register episode asset: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a missing episode from one already carrying an asset.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM episodes WHERE id = $1)`, input.EpisodeID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check episode existence: %w", err)
		}
		if !exists {
			return repository.ErrEpisodeNotFound
		}
		return repository.ErrAssetAlreadyRegistered
	}

	return nil
}

// scanFeedItem scans one feed item row.
func scanFeedItem(rows pgx.Rows) (*model.FeedItem, error) {
	return scanFeedItemWith(rows)
}

// scanFeedItemWith scans a feed item row with extra leading columns.
func scanFeedItemWith(rows pgx.Rows, extra ...any) (*model.FeedItem, error) {
	var (
		item        model.FeedItem
		seriesID    *uuid.UUID
		visibility  string
		playbackKey *string
	)

	dest := append(extra,
		&item.ContentID,
		&seriesID,
		&item.Title,
		&item.Thumbnails.Small,
		&item.Thumbnails.Medium,
		&item.Thumbnails.Large,
		&item.DurationSeconds,
		&item.PublishedAt,
		&visibility,
		&playbackKey,
	)

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	item.SeriesID = seriesID
	item.Visibility = model.Visibility(visibility)
	if playbackKey != nil {
		item.PlaybackKey = *playbackKey
	}

	return &item, nil
}

// cursorSeparator joins the keyset cursor parts.
const cursorSeparator = "|"

// encodeCursor encodes the keyset position after the last returned item.
func encodeCursor(publishedAt time.Time, id uuid.UUID) string {
	return publishedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + id.String()
}

// decodeCursor parses a cursor produced by encodeCursor. Cursors arrive
// from callers, so decode failures are ErrInvalidCursor, not server errors.
func decodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	parts := strings.SplitN(cursor, cursorSeparator, 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: %q", repository.ErrInvalidCursor, cursor)
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: timestamp: %v", repository.ErrInvalidCursor, err)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: id: %v", repository.ErrInvalidCursor, err)
	}

	return ts, id, nil
}
