package usecase

import (
	"fmt"
	"time"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
	"github.com/AnuragPathakTDL/ContentService/internal/infrastructure/metrics"
)

// maxPublishSkew is how far in the future a publish timestamp may sit before
// it is treated as corrupt rather than clock drift.
const maxPublishSkew = 24 * time.Hour

// QualityMonitor validates composed catalog payloads against structural and
// referential invariants before they reach a viewer or the cache.
//
// It holds no state; the zero value is usable and one instance is safe to
// share across concurrent requests. Validation is fail-fast: the first
// violation found is returned as a ConsistencyError, so corrupt data is
// reported with attribution instead of silently served.
type QualityMonitor struct {
	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// NewQualityMonitor creates a new QualityMonitor.
func NewQualityMonitor() *QualityMonitor {
	return &QualityMonitor{now: time.Now}
}

// ValidateFeed checks a composed feed page. Every item's series reference
// must resolve within the page's series index, playable items must carry a
// finalized asset key, and timestamps must not sit in the far future.
func (m *QualityMonitor) ValidateFeed(page *model.FeedPage) error {
	for i := range page.Items {
		if err := m.validateItem(&page.Items[i], page); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSeriesDetail checks a composed series detail payload. A series
// with zero episodes across all seasons and the standalone list is flagged,
// and every episode is checked like a feed item.
func (m *QualityMonitor) ValidateSeriesDetail(detail *model.SeriesDetail) error {
	if detail.EpisodeCount() == 0 {
		return m.raise(model.QualityIssue{
			Kind:      model.IssueEmptySeries,
			ContentID: detail.ID,
			Detail:    fmt.Sprintf("series %q has no episodes in any season or standalone list", detail.Slug),
		})
	}

	for si := range detail.Seasons {
		for ei := range detail.Seasons[si].Episodes {
			if err := m.validateItem(&detail.Seasons[si].Episodes[ei], nil); err != nil {
				return err
			}
		}
	}
	for i := range detail.Standalone {
		if err := m.validateItem(&detail.Standalone[i], nil); err != nil {
			return err
		}
	}

	return nil
}

// validateItem applies the per-item checks. page may be nil when no series
// index accompanies the item (series detail episodes are validated against
// their owning series, not an index).
func (m *QualityMonitor) validateItem(item *model.FeedItem, page *model.FeedPage) error {
	if !item.Visibility.IsValid() {
		return m.raise(model.QualityIssue{
			Kind:      model.IssueInvalidField,
			ContentID: item.ContentID,
			SeriesID:  item.SeriesID,
			Detail:    fmt.Sprintf("unknown visibility %q", item.Visibility),
		})
	}

	if page != nil && item.SeriesID != nil {
		if _, ok := page.SeriesRefFor(*item.SeriesID); !ok {
			return m.raise(model.QualityIssue{
				Kind:      model.IssueUnknownSeries,
				ContentID: item.ContentID,
				SeriesID:  item.SeriesID,
				Detail:    "series reference does not resolve in feed index",
			})
		}
	}

	if item.Visibility.Playable() && item.PlaybackKey == "" {
		return m.raise(model.QualityIssue{
			Kind:      model.IssueMissingAsset,
			ContentID: item.ContentID,
			SeriesID:  item.SeriesID,
			Detail:    "playable episode has no finalized streaming asset",
		})
	}

	if item.PublishedAt.IsZero() {
		return m.raise(model.QualityIssue{
			Kind:      model.IssueInvalidField,
			ContentID: item.ContentID,
			SeriesID:  item.SeriesID,
			Detail:    "publish timestamp is unset",
		})
	}
	if item.PublishedAt.After(m.clock().Add(maxPublishSkew)) {
		return m.raise(model.QualityIssue{
			Kind:      model.IssueFutureTimestamp,
			ContentID: item.ContentID,
			SeriesID:  item.SeriesID,
			Detail:    fmt.Sprintf("published_at %s is in the far future", item.PublishedAt.Format(time.RFC3339)),
		})
	}

	return nil
}

func (m *QualityMonitor) raise(issue model.QualityIssue) error {
	metrics.QualityIssuesTotal.WithLabelValues(string(issue.Kind)).Inc()
	return model.NewConsistencyError(issue)
}

func (m *QualityMonitor) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}
