package model

import (
	"time"

	"github.com/google/uuid"
)

// Visibility represents who may see a playable unit.
type Visibility string

const (
	VisibilityPublic   Visibility = "PUBLIC"
	VisibilityUnlisted Visibility = "UNLISTED"
	VisibilityHidden   Visibility = "HIDDEN"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityHidden:
		return true
	default:
		return false
	}
}

func (v Visibility) String() string {
	return string(v)
}

// Playable reports whether a unit with this visibility is exposed to viewers
// and therefore must carry a finalized streaming asset.
func (v Visibility) Playable() bool {
	return v == VisibilityPublic || v == VisibilityUnlisted
}

// ThumbnailSet holds the rendition URLs for one playable unit.
type ThumbnailSet struct {
	Small  string `json:"small,omitempty"`
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
}

// RatingAggregate is the running (sum, count) of rating values for one
// content id. Average is derived, never stored.
type RatingAggregate struct {
	Sum   float64 `json:"sum"`
	Count int64   `json:"count"`
}

// Average returns the mean rating, or 0 when no ratings exist.
func (r RatingAggregate) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.Sum / float64(r.Count)
}

// FeedItem is a denormalized projection of one playable unit (an episode of
// a series or a standalone video). It is never mutated after construction;
// every read produces a fresh value or an immutable cached snapshot.
type FeedItem struct {
	ContentID       uuid.UUID       `json:"content_id"`
	SeriesID        *uuid.UUID      `json:"series_id,omitempty"`
	Title           string          `json:"title"`
	Thumbnails      ThumbnailSet    `json:"thumbnails"`
	DurationSeconds int             `json:"duration_seconds"`
	PublishedAt     time.Time       `json:"published_at"`
	Visibility      Visibility      `json:"visibility"`
	PlaybackKey     string          `json:"playback_key,omitempty"`
	TrendingScore   float64         `json:"trending_score"`
	Rating          RatingAggregate `json:"rating"`
}

// SeriesRef is the slice of series metadata a feed page needs to render and
// validate its items' series references.
type SeriesRef struct {
	ID    uuid.UUID `json:"id"`
	Slug  string    `json:"slug"`
	Title string    `json:"title"`
}

// FeedPage is the composed feed payload. Series indexes every series
// referenced by Items so referential checks are pure over the payload.
type FeedPage struct {
	Items      []FeedItem           `json:"items"`
	Series     map[string]SeriesRef `json:"series"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// SeriesRefFor resolves an item's series reference within this page.
func (p *FeedPage) SeriesRefFor(id uuid.UUID) (SeriesRef, bool) {
	ref, ok := p.Series[id.String()]
	return ref, ok
}

// Season is an ordered run of episodes within a series. Episode order is
// stable between calls unless the underlying catalog changed.
type Season struct {
	Number   int        `json:"number"`
	Title    string     `json:"title,omitempty"`
	Episodes []FeedItem `json:"episodes"`
}

// SeriesDetail is series metadata plus its ordered seasons and the standalone
// episodes that belong to no season.
type SeriesDetail struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CategoryIDs []string   `json:"category_ids,omitempty"`
	Seasons     []Season   `json:"seasons"`
	Standalone  []FeedItem `json:"standalone"`
}

// EpisodeCount returns the number of episodes across all seasons and the
// standalone list.
func (d *SeriesDetail) EpisodeCount() int {
	n := len(d.Standalone)
	for _, s := range d.Seasons {
		n += len(s.Episodes)
	}
	return n
}

// SeriesSummary is the compact projection used by related-series responses.
type SeriesSummary struct {
	ID             uuid.UUID `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Thumbnail      string    `json:"thumbnail,omitempty"`
	SharedContexts int       `json:"shared_contexts"`
	TrendingScore  float64   `json:"trending_score"`
}

// Category is one browsable catalog grouping.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	ItemCount int       `json:"item_count"`
}

// TrendingEntry is one row of the ranked trending view.
type TrendingEntry struct {
	ContentID uuid.UUID `json:"content_id"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}
