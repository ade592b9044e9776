package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestVisibility_IsValid(t *testing.T) {
	tests := []struct {
		name       string
		visibility Visibility
		want       bool
	}{
		{"PUBLIC is valid", VisibilityPublic, true},
		{"UNLISTED is valid", VisibilityUnlisted, true},
		{"HIDDEN is valid", VisibilityHidden, true},
		{"empty string is invalid", Visibility(""), false},
		{"unknown visibility is invalid", Visibility("DRAFT"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.visibility.IsValid(); got != tt.want {
				t.Errorf("Visibility.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisibility_Playable(t *testing.T) {
	tests := []struct {
		name       string
		visibility Visibility
		want       bool
	}{
		{"PUBLIC is playable", VisibilityPublic, true},
		{"UNLISTED is playable", VisibilityUnlisted, true},
		{"HIDDEN is not playable", VisibilityHidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.visibility.Playable(); got != tt.want {
				t.Errorf("Visibility.Playable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRatingAggregate_Average(t *testing.T) {
	tests := []struct {
		name string
		agg  RatingAggregate
		want float64
	}{
		{"no ratings yields zero", RatingAggregate{}, 0},
		{"single rating", RatingAggregate{Sum: 4, Count: 1}, 4},
		{"multiple ratings", RatingAggregate{Sum: 9, Count: 2}, 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.agg.Average(); got != tt.want {
				t.Errorf("RatingAggregate.Average() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeriesDetail_EpisodeCount(t *testing.T) {
	detail := &SeriesDetail{
		Seasons: []Season{
			{Number: 1, Episodes: []FeedItem{{ContentID: uuid.New()}, {ContentID: uuid.New()}}},
			{Number: 2, Episodes: []FeedItem{{ContentID: uuid.New()}}},
		},
		Standalone: []FeedItem{{ContentID: uuid.New()}},
	}

	if got := detail.EpisodeCount(); got != 4 {
		t.Errorf("EpisodeCount() = %d, want 4", got)
	}
}

func TestMetricsEvent_ScoreDelta(t *testing.T) {
	rating := 4.0

	tests := []struct {
		name  string
		event MetricsEvent
		want  float64
	}{
		{"views only", MetricsEvent{Views: 10}, 1.0},
		{"likes only", MetricsEvent{Likes: 2}, 1.0},
		{"completions only", MetricsEvent{Completions: 10}, 3.0},
		{"rating nudges score", MetricsEvent{Rating: &rating}, 0.8},
		{"combined signals", MetricsEvent{Views: 10, Likes: 2, Completions: 10, Rating: &rating}, 5.8},
		{"empty event is zero", MetricsEvent{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.event.ScoreDelta()
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("ScoreDelta() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Applying events for different content ids in either order must yield the
// same deltas per id; the delta function depends only on the event itself.
func TestMetricsEvent_ScoreDelta_Deterministic(t *testing.T) {
	a := MetricsEvent{ContentID: uuid.New(), Views: 100, Likes: 5}
	b := MetricsEvent{ContentID: uuid.New(), Completions: 7}

	if a.ScoreDelta() != a.ScoreDelta() {
		t.Error("ScoreDelta() is not deterministic for the same event")
	}
	if a.ScoreDelta() == b.ScoreDelta() {
		t.Error("distinct events unexpectedly share a delta; weights may be degenerate")
	}
}

func TestConsistencyError_Error(t *testing.T) {
	contentID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	seriesID := uuid.MustParse("660e8400-e29b-41d4-a716-446655440000")

	err := NewConsistencyError(QualityIssue{
		Kind:      IssueUnknownSeries,
		ContentID: contentID,
		SeriesID:  &seriesID,
		Detail:    "series not present in feed index",
	})

	want := "catalog consistency violation: FEED_ITEM_REFERENCES_UNKNOWN_SERIES: " +
		"content=550e8400-e29b-41d4-a716-446655440000 series=660e8400-e29b-41d4-a716-446655440000: " +
		"series not present in feed index"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
