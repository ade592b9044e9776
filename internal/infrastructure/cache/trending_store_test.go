package cache

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestRedisTrendingStore_IncrScore_Accumulates(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)
	ctx := context.Background()
	contentID := uuid.New()

	if _, err := store.IncrScore(ctx, contentID, 1.5); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}
	got, err := store.IncrScore(ctx, contentID, 2.5)
	if err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}

	if got != 4.0 {
		t.Errorf("score after two increments = %v, want 4.0", got)
	}

	score, err := store.Score(ctx, contentID)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 4.0 {
		t.Errorf("Score() = %v, want 4.0", score)
	}
}

// Increments for two content ids applied in either order must yield the same
// final scores for both ids.
func TestRedisTrendingStore_IncrScore_Commutes(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()

	if _, err := store.IncrScore(ctx, a, 1.0); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}
	if _, err := store.IncrScore(ctx, b, 2.0); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}
	if _, err := store.IncrScore(ctx, a, 3.0); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}
	if _, err := store.IncrScore(ctx, b, 0.5); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}

	scoreA, err := store.Score(ctx, a)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	scoreB, err := store.Score(ctx, b)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if scoreA != 4.0 {
		t.Errorf("score for a = %v, want 4.0", scoreA)
	}
	if scoreB != 2.5 {
		t.Errorf("score for b = %v, want 2.5", scoreB)
	}
}

func TestRedisTrendingStore_Score_AbsentIsZero(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)

	score, err := store.Score(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 0 {
		t.Errorf("Score() for absent entry = %v, want 0", score)
	}
}

func TestRedisTrendingStore_TopN_OrdersByScoreDescending(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)
	ctx := context.Background()

	low, mid, high := uuid.New(), uuid.New(), uuid.New()
	for id, delta := range map[uuid.UUID]float64{low: 1, mid: 5, high: 9} {
		if _, err := store.IncrScore(ctx, id, delta); err != nil {
			t.Fatalf("IncrScore failed: %v", err)
		}
	}

	entries, err := store.TopN(ctx, 2)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("TopN returned %d entries, want 2", len(entries))
	}
	if entries[0].ContentID != high || entries[1].ContentID != mid {
		t.Errorf("TopN order = [%s %s], want [%s %s]",
			entries[0].ContentID, entries[1].ContentID, high, mid)
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set for incremented entry")
	}
}

// Equal scores must always order by ascending content id, across repeated calls.
func TestRedisTrendingStore_TopN_TieBreakByContentID(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)
	ctx := context.Background()

	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")

	// Insert in descending-id order to ensure the tie-break is not insertion order.
	if _, err := store.IncrScore(ctx, b, 7.0); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}
	if _, err := store.IncrScore(ctx, a, 7.0); err != nil {
		t.Fatalf("IncrScore failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		entries, err := store.TopN(ctx, 2)
		if err != nil {
			t.Fatalf("TopN failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("TopN returned %d entries, want 2", len(entries))
		}
		if entries[0].ContentID != a || entries[1].ContentID != b {
			t.Fatalf("call %d: tie order = [%s %s], want ascending id [%s %s]",
				i, entries[0].ContentID, entries[1].ContentID, a, b)
		}
	}
}

func TestRedisTrendingStore_TopN_TieStraddlesCutoff(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)
	ctx := context.Background()

	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	c := uuid.MustParse("cccccccc-0000-0000-0000-000000000000")

	// Three members tied at the same score, asked for fewer than the tie
	// band: truncation must select by ascending id, not Redis's tie order.
	for _, id := range []uuid.UUID{c, b, a} {
		if _, err := store.IncrScore(ctx, id, 7.0); err != nil {
			t.Fatalf("IncrScore failed: %v", err)
		}
	}

	entries, err := store.TopN(ctx, 1)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("TopN returned %d entries, want 1", len(entries))
	}
	if entries[0].ContentID != a {
		t.Fatalf("TopN(1) with tied scores selected %s, want ascending id %s", entries[0].ContentID, a)
	}

	entries, err = store.TopN(ctx, 2)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("TopN returned %d entries, want 2", len(entries))
	}
	if entries[0].ContentID != a || entries[1].ContentID != b {
		t.Fatalf("TopN(2) with tied scores = [%s %s], want [%s %s]",
			entries[0].ContentID, entries[1].ContentID, a, b)
	}
}

func TestRedisTrendingStore_TopN_Empty(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)

	entries, err := store.TopN(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("TopN on empty set returned %d entries", len(entries))
	}
}

func TestRedisTrendingStore_Rating(t *testing.T) {
	_, client, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewRedisTrendingStore(client)
	ctx := context.Background()
	contentID := uuid.New()

	agg, err := store.Rating(ctx, contentID)
	if err != nil {
		t.Fatalf("Rating failed: %v", err)
	}
	if agg.Sum != 0 || agg.Count != 0 {
		t.Errorf("absent aggregate = %+v, want (0, 0)", agg)
	}

	if err := store.IncrRating(ctx, contentID, 4.0); err != nil {
		t.Fatalf("IncrRating failed: %v", err)
	}
	if err := store.IncrRating(ctx, contentID, 3.0); err != nil {
		t.Fatalf("IncrRating failed: %v", err)
	}

	agg, err = store.Rating(ctx, contentID)
	if err != nil {
		t.Fatalf("Rating failed: %v", err)
	}
	if math.Abs(agg.Sum-7.0) > 1e-9 {
		t.Errorf("Sum = %v, want 7.0", agg.Sum)
	}
	if agg.Count != 2 {
		t.Errorf("Count = %d, want 2", agg.Count)
	}
	if math.Abs(agg.Average()-3.5) > 1e-9 {
		t.Errorf("Average() = %v, want 3.5", agg.Average())
	}
}
