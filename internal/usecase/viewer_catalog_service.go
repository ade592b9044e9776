package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/domain/repository"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/cache"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/metrics"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50

	defaultRelatedLimit = 10

	// relatedCandidateFactor over-fetches related candidates so the trending
	// tie-break decides which of the shared-context-tied series survive the
	// cap, instead of the repository's slug ordering.
	relatedCandidateFactor = 4
)

// FeedResult is one feed page plus cache provenance for the transport layer.
type FeedResult struct {
	Page      *model.FeedPage
	FromCache bool
}

// SeriesDetailResult is a series detail payload plus cache provenance.
// PlaybackURLs maps episode id to a short-lived presigned streaming URL and
// is minted after the cache, so stored payloads never carry expiring URLs.
type SeriesDetailResult struct {
	Detail       *model.SeriesDetail
	PlaybackURLs map[string]string
	FromCache    bool
}

// RelatedSeriesResult is a ranked related-series list plus cache provenance.
type RelatedSeriesResult struct {
	Series    []model.SeriesSummary
	FromCache bool

	found bool
}

// CategoryListResult is the category listing plus cache provenance.
type CategoryListResult struct {
	Categories []model.Category
	FromCache  bool
}

// ViewerCatalogConfig holds the externally supplied TTL policy. The service
// does not decide TTLs, it is handed them.
type ViewerCatalogConfig struct {
	FeedTTL        time.Duration
	SeriesTTL      time.Duration
	RelatedTTL     time.Duration
	CategoriesTTL  time.Duration
	PlaybackURLTTL time.Duration
}

// DefaultViewerCatalogConfig returns the default TTL policy.
func DefaultViewerCatalogConfig() ViewerCatalogConfig {
	return ViewerCatalogConfig{
		FeedTTL:        60 * time.Second,
		SeriesTTL:      5 * time.Minute,
		RelatedTTL:     5 * time.Minute,
		CategoriesTTL:  10 * time.Minute,
		PlaybackURLTTL: 15 * time.Minute,
	}
}

// ViewerCatalogService composes the cache store, trending aggregator,
// quality monitor, event publisher and the system-of-record catalog into
// the viewer-facing read API plus the internal mutation operations.
//
// Read flow per request: key-compute -> cache lookup -> on hit revalidate
// and return; on miss fetch, enrich with trending, validate, write back
// with the endpoint's TTL. There is no per-key mutual exclusion across
// processes; two concurrent misses may both compute and both write, which
// is acceptable because both are equivalent reads of the same source data.
// Singleflight only coalesces misses within one process.
type ViewerCatalogService struct {
	catalog  repository.CatalogService
	store    cache.Store
	trending *TrendingAggregator
	monitor  *QualityMonitor
	stream   repository.EventStream
	assets   repository.AssetStorage
	sfGroup  singleflight.Group

	cfg ViewerCatalogConfig
}

// NewViewerCatalogService creates a new ViewerCatalogService.
func NewViewerCatalogService(
	catalog repository.CatalogService,
	store cache.Store,
	trending *TrendingAggregator,
	monitor *QualityMonitor,
	stream repository.EventStream,
	assets repository.AssetStorage,
	cfg ViewerCatalogConfig,
) *ViewerCatalogService {
	return &ViewerCatalogService{
		catalog:  catalog,
		store:    store,
		trending: trending,
		monitor:  monitor,
		stream:   stream,
		assets:   assets,
		cfg:      cfg,
	}
}

// GetFeed answers one feed query through the read-through cache.
func (s *ViewerCatalogService) GetFeed(ctx context.Context, q repository.FeedQuery) (*FeedResult, error) {
	q = normalizeFeedQuery(q)
	key := feedCacheKey(q)

	result, err := s.coalesce(key, func() (any, error) {
		return s.getFeedWithCache(ctx, key, q)
	})
	if err != nil {
		return nil, err
	}

	return result.(*FeedResult), nil
}

func (s *ViewerCatalogService) getFeedWithCache(ctx context.Context, key string, q repository.FeedQuery) (*FeedResult, error) {
	var cached model.FeedPage
	if s.cacheGet(ctx, key, &cached) {
		// Cached payloads carry no schema version; the structural re-check
		// is the only guard against serving a stale shape.
		if err := s.monitor.ValidateFeed(&cached); err != nil {
			return nil, err
		}
		return &FeedResult{Page: &cached, FromCache: true}, nil
	}

	page, err := s.catalog.ListFeed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	s.enrichItems(ctx, page.Items)

	if err := s.monitor.ValidateFeed(page); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, page, s.cfg.FeedTTL)
	return &FeedResult{Page: page, FromCache: false}, nil
}

// GetSeriesDetail retrieves a series with its episodes. Returns nil, nil
// when the slug does not resolve; absence is a normal outcome, distinct
// from a data-quality violation.
func (s *ViewerCatalogService) GetSeriesDetail(ctx context.Context, slug string) (*SeriesDetailResult, error) {
	key := seriesDetailCacheKey(slug)

	result, err := s.coalesce(key, func() (any, error) {
		return s.getSeriesDetailWithCache(ctx, key, slug)
	})
	if err != nil {
		return nil, err
	}

	detail := result.(*SeriesDetailResult)
	if detail == nil || detail.Detail == nil {
		return nil, nil
	}

	detail.PlaybackURLs = s.mintPlaybackURLs(ctx, detail.Detail)
	return detail, nil
}

func (s *ViewerCatalogService) getSeriesDetailWithCache(ctx context.Context, key, slug string) (*SeriesDetailResult, error) {
	var cached model.SeriesDetail
	if s.cacheGet(ctx, key, &cached) {
		if err := s.monitor.ValidateSeriesDetail(&cached); err != nil {
			return nil, err
		}
		return &SeriesDetailResult{Detail: &cached, FromCache: true}, nil
	}

	detail, err := s.catalog.GetSeriesDetailBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return &SeriesDetailResult{}, nil
		}
		return nil, fmt.Errorf("get series detail: %w", err)
	}

	for i := range detail.Seasons {
		s.enrichItems(ctx, detail.Seasons[i].Episodes)
	}
	s.enrichItems(ctx, detail.Standalone)

	if err := s.monitor.ValidateSeriesDetail(detail); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, detail, s.cfg.SeriesTTL)
	return &SeriesDetailResult{Detail: detail, FromCache: false}, nil
}

// GetRelatedSeries returns series related to slug, ranked by catalog-declared
// relatedness with trending score as tie-break, capped at limit. Returns
// nil, nil when the slug does not resolve.
func (s *ViewerCatalogService) GetRelatedSeries(ctx context.Context, slug string, limit int) (*RelatedSeriesResult, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	key := relatedSeriesCacheKey(slug, limit)

	result, err := s.coalesce(key, func() (any, error) {
		return s.getRelatedSeriesWithCache(ctx, key, slug, limit)
	})
	if err != nil {
		return nil, err
	}

	related := result.(*RelatedSeriesResult)
	if !related.found {
		return nil, nil
	}
	return related, nil
}

func (s *ViewerCatalogService) getRelatedSeriesWithCache(ctx context.Context, key, slug string, limit int) (*RelatedSeriesResult, error) {
	var cached []model.SeriesSummary
	if s.cacheGet(ctx, key, &cached) {
		return &RelatedSeriesResult{Series: cached, FromCache: true, found: true}, nil
	}

	candidates, err := s.catalog.ListRelatedSeries(ctx, slug, limit*relatedCandidateFactor)
	if err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return &RelatedSeriesResult{}, nil
		}
		return nil, fmt.Errorf("list related series: %w", err)
	}

	summaries := make([]model.SeriesSummary, 0, len(candidates))
	for _, c := range candidates {
		summary := c.Summary
		summary.SharedContexts = c.SharedContexts
		summary.TrendingScore = s.trending.ScoreFor(ctx, summary.ID)
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].SharedContexts != summaries[j].SharedContexts {
			return summaries[i].SharedContexts > summaries[j].SharedContexts
		}
		if summaries[i].TrendingScore != summaries[j].TrendingScore {
			return summaries[i].TrendingScore > summaries[j].TrendingScore
		}
		return summaries[i].Slug < summaries[j].Slug
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}

	s.cacheSet(ctx, key, summaries, s.cfg.RelatedTTL)
	return &RelatedSeriesResult{Series: summaries, FromCache: false, found: true}, nil
}

// ListCategories returns all browsable categories through the cache.
func (s *ViewerCatalogService) ListCategories(ctx context.Context) (*CategoryListResult, error) {
	const key = "categories:all"

	result, err := s.coalesce(key, func() (any, error) {
		var cached []model.Category
		if s.cacheGet(ctx, key, &cached) {
			return &CategoryListResult{Categories: cached, FromCache: true}, nil
		}

		categories, err := s.catalog.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}

		s.cacheSet(ctx, key, categories, s.cfg.CategoriesTTL)
		return &CategoryListResult{Categories: categories, FromCache: false}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*CategoryListResult), nil
}

// GetCategory retrieves one category, bypassing the cache (point lookups
// are cheap and rare). Returns nil, nil when the id does not resolve.
func (s *ViewerCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	cat, err := s.catalog.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return cat, nil
}

// ApplyMetrics folds engagement events into the trending view and appends
// one metrics-applied event per input to the mutation stream, partitioned
// by content id. Both steps fail loudly so the caller can retry.
func (s *ViewerCatalogService) ApplyMetrics(ctx context.Context, events []model.MetricsEvent) error {
	if err := s.trending.ApplyMetrics(ctx, events); err != nil {
		return err
	}

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal metrics event: %w", err)
		}

		err = s.stream.Publish(ctx, event.ContentID.String(), repository.CatalogEvent{
			EventID:      uuid.New(),
			Type:         repository.EventMetricsApplied,
			PartitionKey: event.ContentID.String(),
			OccurredAt:   time.Now().UTC(),
			Payload:      payload,
		})
		if err != nil {
			return fmt.Errorf("publish metrics event: %w", err)
		}
	}

	return nil
}

// RegisterEpisodeAsset attaches a finalized media asset to an episode.
// The object must already exist in the asset store; otherwise the mutation
// is rejected with ErrAssetNotUploaded so the pipeline can retry after the
// upload completes.
func (s *ViewerCatalogService) RegisterEpisodeAsset(ctx context.Context, actorID uuid.UUID, input repository.RegisterAssetInput) error {
	exists, err := s.assets.Exists(ctx, input.PlaybackKey)
	if err != nil {
		return fmt.Errorf("check asset existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", repository.ErrAssetNotUploaded, input.PlaybackKey)
	}

	if err := s.catalog.RegisterEpisodeAsset(ctx, actorID, input); err != nil {
		return err
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal asset event: %w", err)
	}

	err = s.stream.Publish(ctx, input.EpisodeID.String(), repository.CatalogEvent{
		EventID:      uuid.New(),
		Type:         repository.EventAssetRegistered,
		PartitionKey: input.EpisodeID.String(),
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("publish asset event: %w", err)
	}

	return nil
}

// TopTrending exposes the ranked trending view.
func (s *ViewerCatalogService) TopTrending(ctx context.Context, limit int) ([]model.TrendingEntry, error) {
	return s.trending.TopTrending(ctx, limit)
}

// coalesce runs fn through singleflight and records sharing metrics.
func (s *ViewerCatalogService) coalesce(key string, fn func() (any, error)) (any, error) {
	result, err, shared := s.sfGroup.Do(key, fn)
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}
	return result, err
}

// cacheGet reads key into dest, treating store errors as misses so a cache
// outage degrades to source reads instead of failing requests.
func (s *ViewerCatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	ok, err := s.store.Get(ctx, key, dest)
	if err != nil {
		slog.Warn("cache get failed, treating as miss",
			"key", key,
			"error", err,
		)
		return false
	}
	return ok
}

// cacheSet writes through to the cache; failures are logged, never fatal.
func (s *ViewerCatalogService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		slog.Warn("cache set failed",
			"key", key,
			"error", err,
		)
	}
}

// enrichItems attaches trending scores and rating aggregates; absent
// entries resolve to zero values, so enrichment never fails a read.
func (s *ViewerCatalogService) enrichItems(ctx context.Context, items []model.FeedItem) {
	for i := range items {
		items[i].TrendingScore = s.trending.ScoreFor(ctx, items[i].ContentID)
		items[i].Rating = s.trending.RatingFor(ctx, items[i].ContentID)
	}
}

// mintPlaybackURLs presigns streaming URLs for every playable episode that
// carries an asset. Best-effort: a signing failure drops the URL, not the
// response.
func (s *ViewerCatalogService) mintPlaybackURLs(ctx context.Context, detail *model.SeriesDetail) map[string]string {
	urls := make(map[string]string)

	mint := func(items []model.FeedItem) {
		for _, item := range items {
			if item.PlaybackKey == "" {
				continue
			}
			u, err := s.assets.GeneratePresignedPlaybackURL(ctx, item.PlaybackKey, s.cfg.PlaybackURLTTL)
			if err != nil {
				slog.Warn("failed to presign playback URL",
					"content_id", item.ContentID,
					"error", err,
				)
				continue
			}
			urls[item.ContentID.String()] = u
		}
	}

	for i := range detail.Seasons {
		mint(detail.Seasons[i].Episodes)
	}
	mint(detail.Standalone)

	return urls
}

// normalizeFeedQuery applies defaults and clamps so equivalent queries map
// to the same cache key.
func normalizeFeedQuery(q repository.FeedQuery) repository.FeedQuery {
	if q.Limit <= 0 {
		q.Limit = defaultFeedLimit
	}
	if q.Limit > maxFeedLimit {
		q.Limit = maxFeedLimit
	}
	return q
}

// feedCacheKey is a pure function of the normalized query parameters.
func feedCacheKey(q repository.FeedQuery) string {
	return fmt.Sprintf("feed:limit=%d:cursor=%s:category=%s", q.Limit, q.Cursor, q.CategorySlug)
}

func seriesDetailCacheKey(slug string) string {
	return "series:detail:" + slug
}

func relatedSeriesCacheKey(slug string, limit int) string {
	return fmt.Sprintf("series:related:%s:limit=%d", slug, limit)
}
