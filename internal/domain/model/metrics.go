package model

import (
	"time"

	"github.com/google/uuid"
)

// Score weights for the trending increment. Tuned so a like outweighs a
// view and a completion sits between them.
const (
	viewWeight       = 0.1
	likeWeight       = 0.5
	completionWeight = 0.3
	ratingWeight     = 0.2
)

// MetricsEvent carries engagement signal deltas for one content id.
// Events are deltas, not snapshots: the same event applied twice counts
// twice. Deduplication by EventID is the producer's responsibility.
type MetricsEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	ContentID   uuid.UUID `json:"content_id"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Completions int64     `json:"completions"`
	Rating      *float64  `json:"rating,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ScoreDelta computes the deterministic weighted trending increment for
// this event. Pure addition over the existing score, so concurrent deltas
// commute at the store.
func (e MetricsEvent) ScoreDelta() float64 {
	delta := viewWeight*float64(e.Views) +
		likeWeight*float64(e.Likes) +
		completionWeight*float64(e.Completions)
	if e.Rating != nil {
		delta += ratingWeight * *e.Rating
	}
	return delta
}
