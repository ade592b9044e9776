package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/domain/repository"
)

type mockCatalogService struct {
	listFeedFunc             func(ctx context.Context, q repository.FeedQuery) (*model.FeedPage, error)
	getSeriesDetailFunc      func(ctx context.Context, slug string) (*model.SeriesDetail, error)
	listRelatedSeriesFunc    func(ctx context.Context, slug string, limit int) ([]repository.RelatedSeries, error)
	listCategoriesFunc       func(ctx context.Context) ([]model.Category, error)
	getCategoryByIDFunc      func(ctx context.Context, id uuid.UUID) (*model.Category, error)
	registerEpisodeAssetFunc func(ctx context.Context, actorID uuid.UUID, input repository.RegisterAssetInput) error

	listFeedCalls int
}

func (m *mockCatalogService) ListFeed(ctx context.Context, q repository.FeedQuery) (*model.FeedPage, error) {
	m.listFeedCalls++
	return m.listFeedFunc(ctx, q)
}

func (m *mockCatalogService) GetSeriesDetailBySlug(ctx context.Context, slug string) (*model.SeriesDetail, error) {
	return m.getSeriesDetailFunc(ctx, slug)
}

func (m *mockCatalogService) ListRelatedSeries(ctx context.Context, slug string, limit int) ([]repository.RelatedSeries, error) {
	return m.listRelatedSeriesFunc(ctx, slug, limit)
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return m.listCategoriesFunc(ctx)
}

func (m *mockCatalogService) GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return m.getCategoryByIDFunc(ctx, id)
}

func (m *mockCatalogService) RegisterEpisodeAsset(ctx context.Context, actorID uuid.UUID, input repository.RegisterAssetInput) error {
	return m.registerEpisodeAssetFunc(ctx, actorID, input)
}

type publishedEvent struct {
	partitionKey string
	event        repository.CatalogEvent
}

type mockEventStream struct {
	publishFunc func(ctx context.Context, partitionKey string, event repository.CatalogEvent) error

	mu        sync.Mutex
	published []publishedEvent
}

func (m *mockEventStream) Publish(ctx context.Context, partitionKey string, event repository.CatalogEvent) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(ctx, partitionKey, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedEvent{partitionKey: partitionKey, event: event})
	return nil
}

func (m *mockEventStream) Close() error { return nil }

type mockAssetStorage struct {
	existsFunc    func(ctx context.Context, key string) (bool, error)
	presignedFunc func(ctx context.Context, key string, expiry time.Duration) (string, error)
	deleteFunc    func(ctx context.Context, key string) error
}

func (m *mockAssetStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFunc == nil {
		return true, nil
	}
	return m.existsFunc(ctx, key)
}

func (m *mockAssetStorage) GeneratePresignedPlaybackURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.presignedFunc == nil {
		return "https://assets.test/" + key, nil
	}
	return m.presignedFunc(ctx, key, expiry)
}

func (m *mockAssetStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, key)
}

// memTrendingStore is an in-memory TrendingStore for aggregator tests.
type memTrendingStore struct {
	mu      sync.Mutex
	scores  map[uuid.UUID]float64
	updated map[uuid.UUID]time.Time
	ratings map[uuid.UUID]model.RatingAggregate

	incrScoreErr error
	scoreErr     error
	ratingErr    error
}

func newMemTrendingStore() *memTrendingStore {
	return &memTrendingStore{
		scores:  make(map[uuid.UUID]float64),
		updated: make(map[uuid.UUID]time.Time),
		ratings: make(map[uuid.UUID]model.RatingAggregate),
	}
}

func (s *memTrendingStore) IncrScore(_ context.Context, contentID uuid.UUID, delta float64) (float64, error) {
	if s.incrScoreErr != nil {
		return 0, s.incrScoreErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[contentID] += delta
	s.updated[contentID] = time.Now().UTC()
	return s.scores[contentID], nil
}

func (s *memTrendingStore) TopN(_ context.Context, n int) ([]model.TrendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]model.TrendingEntry, 0, len(s.scores))
	for id, score := range s.scores {
		entries = append(entries, model.TrendingEntry{
			ContentID: id,
			Score:     score,
			UpdatedAt: s.updated[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ContentID.String() < entries[j].ContentID.String()
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (s *memTrendingStore) Score(_ context.Context, contentID uuid.UUID) (float64, error) {
	if s.scoreErr != nil {
		return 0, s.scoreErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[contentID], nil
}

func (s *memTrendingStore) IncrRating(_ context.Context, contentID uuid.UUID, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg := s.ratings[contentID]
	agg.Sum += value
	agg.Count++
	s.ratings[contentID] = agg
	return nil
}

func (s *memTrendingStore) Rating(_ context.Context, contentID uuid.UUID) (model.RatingAggregate, error) {
	if s.ratingErr != nil {
		return model.RatingAggregate{}, s.ratingErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings[contentID], nil
}
