package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/cache"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/metrics"
)

// TrendingAggregator turns engagement-metric events into a ranked trending
// view and exposes current rating aggregates.
//
// Deltas are applied through the store's atomic increment so concurrent
// callers commute; the aggregator never read-modify-writes a score. It does
// not deduplicate events: applying the same event twice doubles its delta.
// Event-id dedup is the producer's contract.
type TrendingAggregator struct {
	store cache.TrendingStore
}

// NewTrendingAggregator creates a new TrendingAggregator.
func NewTrendingAggregator(store cache.TrendingStore) *TrendingAggregator {
	return &TrendingAggregator{store: store}
}

// ApplyMetrics folds a batch of engagement events into the ranked view.
// Fails loudly on store errors so the caller can retry or dead-letter;
// events before the failure remain applied.
func (a *TrendingAggregator) ApplyMetrics(ctx context.Context, events []model.MetricsEvent) error {
	for _, event := range events {
		if event.Rating != nil {
			if err := a.store.IncrRating(ctx, event.ContentID, *event.Rating); err != nil {
				metrics.TrendingUpdatesTotal.WithLabelValues(metrics.StatusError).Inc()
				return fmt.Errorf("apply rating for %s: %w", event.ContentID, err)
			}
		}

		if delta := event.ScoreDelta(); delta != 0 {
			if _, err := a.store.IncrScore(ctx, event.ContentID, delta); err != nil {
				metrics.TrendingUpdatesTotal.WithLabelValues(metrics.StatusError).Inc()
				return fmt.Errorf("apply score delta for %s: %w", event.ContentID, err)
			}
		}

		metrics.TrendingUpdatesTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	}

	return nil
}

// TopTrending returns the highest-scored content ids, descending score,
// ties broken by ascending content id.
func (a *TrendingAggregator) TopTrending(ctx context.Context, limit int) ([]model.TrendingEntry, error) {
	return a.store.TopN(ctx, limit)
}

// ScoreFor returns the content's trending score. Absent entries and store
// failures both resolve to 0; trending enrichment is best-effort and must
// never fail a read.
func (a *TrendingAggregator) ScoreFor(ctx context.Context, contentID uuid.UUID) float64 {
	score, err := a.store.Score(ctx, contentID)
	if err != nil {
		slog.Warn("trending score lookup degraded to zero",
			"content_id", contentID,
			"error", err,
		)
		return 0
	}
	return score
}

// RatingFor returns the content's rating aggregate. Absent entries and
// store failures both resolve to (0, 0).
func (a *TrendingAggregator) RatingFor(ctx context.Context, contentID uuid.UUID) model.RatingAggregate {
	agg, err := a.store.Rating(ctx, contentID)
	if err != nil {
		slog.Warn("rating lookup degraded to empty aggregate",
			"content_id", contentID,
			"error", err,
		)
		return model.RatingAggregate{}
	}
	return agg
}
