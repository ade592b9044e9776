package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
)

const (
	// trendingScoresKey is the ranked set of content id -> trending score.
	trendingScoresKey = "trending:scores"
	// trendingUpdatedKey maps content id -> last score update timestamp.
	trendingUpdatedKey = "trending:updated"
	// ratingKeyPrefix prefixes the per-content rating aggregate hash.
	ratingKeyPrefix = "rating:"

	ratingSumField   = "sum"
	ratingCountField = "count"
)

// TrendingStore is the capability interface the trending aggregator needs:
// atomic commutative increments and ranked reads. Modeled explicitly so the
// aggregator's concurrency contract is testable against an in-memory fake.
type TrendingStore interface {
	// IncrScore atomically adds delta to the content's score and returns the
	// resulting score. Concurrent increments must never lose an update.
	IncrScore(ctx context.Context, contentID uuid.UUID, delta float64) (float64, error)

	// TopN returns up to n entries ordered by score descending, ties broken
	// by content id ascending.
	TopN(ctx context.Context, n int) ([]model.TrendingEntry, error)

	// Score returns the content's current score; absent entries resolve to 0.
	Score(ctx context.Context, contentID uuid.UUID) (float64, error)

	// IncrRating atomically folds one rating value into the aggregate.
	IncrRating(ctx context.Context, contentID uuid.UUID, value float64) error

	// Rating returns the content's rating aggregate; absent entries resolve
	// to (0, 0).
	Rating(ctx context.Context, contentID uuid.UUID) (model.RatingAggregate, error)
}

// RedisTrendingStore implements TrendingStore on a Redis sorted set plus
// per-content rating hashes. Trending and rating keys carry no TTL; they
// outlive the feed/series caches and are mutated only by deltas.
type RedisTrendingStore struct {
	client redis.Cmdable
}

var _ TrendingStore = (*RedisTrendingStore)(nil)

// NewRedisTrendingStore creates a new Redis-backed trending store.
func NewRedisTrendingStore(client redis.Cmdable) *RedisTrendingStore {
	return &RedisTrendingStore{client: client}
}

// IncrScore applies delta via ZINCRBY so concurrent writers commute.
func (s *RedisTrendingStore) IncrScore(ctx context.Context, contentID uuid.UUID, delta float64) (float64, error) {
	member := contentID.String()

	score, err := s.client.ZIncrBy(ctx, trendingScoresKey, delta, member).Result()
	if err != nil {
		return 0, fmt.Errorf("zincrby trending score: %w", err)
	}

	// Last-write-wins on the timestamp is fine; only the score must commute.
	if err := s.client.HSet(ctx, trendingUpdatedKey, member, time.Now().UTC().Format(time.RFC3339Nano)).Err(); err != nil {
		return score, fmt.Errorf("hset trending updated: %w", err)
	}

	return score, nil
}

// TopN reads the ranked set and re-sorts client-side so equal scores always
// order by ascending content id, independent of Redis's own tie ordering.
// When a score tie straddles the cutoff, the candidate set is widened to
// every member at the boundary score before sorting, so truncation selects
// by the same ordering the result is presented in.
func (s *RedisTrendingStore) TopN(ctx context.Context, n int) ([]model.TrendingEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	members, err := s.client.ZRevRangeWithScores(ctx, trendingScoresKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange trending scores: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	if len(members) == n {
		members, err = s.widenBoundaryTies(ctx, members)
		if err != nil {
			return nil, err
		}
	}

	fields := make([]string, 0, len(members))
	for _, m := range members {
		fields = append(fields, m.Member.(string))
	}

	updated, err := s.client.HMGet(ctx, trendingUpdatedKey, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget trending updated: %w", err)
	}

	entries := make([]model.TrendingEntry, 0, len(members))
	for i, m := range members {
		id, err := uuid.Parse(fields[i])
		if err != nil {
			// Foreign member in the ranked set; skip rather than fail the read.
			continue
		}

		entry := model.TrendingEntry{ContentID: id, Score: m.Score}
		if raw, ok := updated[i].(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				entry.UpdatedAt = ts
			}
		}
		entries = append(entries, entry)
	}

	sortTrendingEntries(entries)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// widenBoundaryTies replaces Redis's own tie order at the cutoff with the
// full tie band: every member sharing the last-ranked score is added so the
// caller's sort decides which tied members survive truncation.
func (s *RedisTrendingStore) widenBoundaryTies(ctx context.Context, members []redis.Z) ([]redis.Z, error) {
	boundary := strconv.FormatFloat(members[len(members)-1].Score, 'f', -1, 64)

	tied, err := s.client.ZRangeByScoreWithScores(ctx, trendingScoresKey, &redis.ZRangeBy{
		Min: boundary,
		Max: boundary,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore trending ties: %w", err)
	}

	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m.Member.(string)] = struct{}{}
	}
	for _, m := range tied {
		if _, ok := seen[m.Member.(string)]; !ok {
			members = append(members, m)
		}
	}

	return members, nil
}

// Score returns the current score, resolving absent members to 0.
func (s *RedisTrendingStore) Score(ctx context.Context, contentID uuid.UUID) (float64, error) {
	score, err := s.client.ZScore(ctx, trendingScoresKey, contentID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("zscore trending: %w", err)
	}
	return score, nil
}

// IncrRating folds a rating into the per-content aggregate hash.
// Both fields are incremented atomically at the store so concurrent ratings
// never lose an update; the two increments may be observed out of step, which
// only skews the derived average transiently.
func (s *RedisTrendingStore) IncrRating(ctx context.Context, contentID uuid.UUID, value float64) error {
	key := ratingKeyPrefix + contentID.String()

	if err := s.client.HIncrByFloat(ctx, key, ratingSumField, value).Err(); err != nil {
		return fmt.Errorf("hincrbyfloat rating sum: %w", err)
	}
	if err := s.client.HIncrBy(ctx, key, ratingCountField, 1).Err(); err != nil {
		return fmt.Errorf("hincrby rating count: %w", err)
	}

	return nil
}

// Rating returns the aggregate, resolving absent entries to (0, 0).
func (s *RedisTrendingStore) Rating(ctx context.Context, contentID uuid.UUID) (model.RatingAggregate, error) {
	key := ratingKeyPrefix + contentID.String()

	values, err := s.client.HMGet(ctx, key, ratingSumField, ratingCountField).Result()
	if err != nil {
		return model.RatingAggregate{}, fmt.Errorf("hmget rating: %w", err)
	}

	var agg model.RatingAggregate
	if raw, ok := values[0].(string); ok {
		sum, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.RatingAggregate{}, fmt.Errorf("parse rating sum %q: %w", raw, err)
		}
		agg.Sum = sum
	}
	if raw, ok := values[1].(string); ok {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return model.RatingAggregate{}, fmt.Errorf("parse rating count %q: %w", raw, err)
		}
		agg.Count = count
	}

	return agg, nil
}

// sortTrendingEntries orders by score descending, content id ascending.
func sortTrendingEntries(entries []model.TrendingEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ContentID.String() < entries[j].ContentID.String()
	})
}
