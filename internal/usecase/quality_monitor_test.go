package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
)

var monitorNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testMonitor() *QualityMonitor {
	m := NewQualityMonitor()
	m.now = func() time.Time { return monitorNow }
	return m
}

func validFeedItem(seriesID *uuid.UUID) model.FeedItem {
	return model.FeedItem{
		ContentID:       uuid.New(),
		SeriesID:        seriesID,
		Title:           "episode",
		DurationSeconds: 1420,
		PublishedAt:     monitorNow.Add(-48 * time.Hour),
		Visibility:      model.VisibilityPublic,
		PlaybackKey:     "assets/episode/master.m3u8",
	}
}

func feedPageWith(items ...model.FeedItem) *model.FeedPage {
	page := &model.FeedPage{
		Items:  items,
		Series: make(map[string]model.SeriesRef),
	}
	for _, item := range items {
		if item.SeriesID != nil {
			page.Series[item.SeriesID.String()] = model.SeriesRef{
				ID:    *item.SeriesID,
				Slug:  "some-series",
				Title: "Some Series",
			}
		}
	}
	return page
}

func assertIssueKind(t *testing.T, err error, want model.IssueKind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected ConsistencyError, got nil")
	}
	var cerr *model.ConsistencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *model.ConsistencyError", err)
	}
	if cerr.Issue.Kind != want {
		t.Fatalf("issue kind = %s, want %s", cerr.Issue.Kind, want)
	}
}

func TestQualityMonitor_ValidateFeed_CleanPage(t *testing.T) {
	seriesID := uuid.New()
	page := feedPageWith(validFeedItem(&seriesID), validFeedItem(nil))

	if err := testMonitor().ValidateFeed(page); err != nil {
		t.Fatalf("ValidateFeed() on clean page = %v", err)
	}
}

func TestQualityMonitor_ValidateFeed_UnknownSeriesRef(t *testing.T) {
	seriesID := uuid.New()
	page := feedPageWith(validFeedItem(&seriesID))
	delete(page.Series, seriesID.String())

	err := testMonitor().ValidateFeed(page)
	assertIssueKind(t, err, model.IssueUnknownSeries)
}

func TestQualityMonitor_ValidateFeed_MissingAsset(t *testing.T) {
	item := validFeedItem(nil)
	item.PlaybackKey = ""

	err := testMonitor().ValidateFeed(feedPageWith(item))
	assertIssueKind(t, err, model.IssueMissingAsset)
}

func TestQualityMonitor_ValidateFeed_HiddenItemWithoutAssetAllowed(t *testing.T) {
	item := validFeedItem(nil)
	item.Visibility = model.VisibilityHidden
	item.PlaybackKey = ""

	if err := testMonitor().ValidateFeed(feedPageWith(item)); err != nil {
		t.Fatalf("ValidateFeed() with non-playable item lacking asset = %v", err)
	}
}

func TestQualityMonitor_ValidateFeed_InvalidVisibility(t *testing.T) {
	item := validFeedItem(nil)
	item.Visibility = model.Visibility("SHADOW")

	err := testMonitor().ValidateFeed(feedPageWith(item))
	assertIssueKind(t, err, model.IssueInvalidField)
}

func TestQualityMonitor_ValidateFeed_FutureTimestamp(t *testing.T) {
	item := validFeedItem(nil)
	item.PublishedAt = monitorNow.Add(25 * time.Hour)

	err := testMonitor().ValidateFeed(feedPageWith(item))
	assertIssueKind(t, err, model.IssueFutureTimestamp)
}

func TestQualityMonitor_ValidateFeed_NearFutureTimestampAllowed(t *testing.T) {
	// Within the skew window publish timestamps are treated as clock drift.
	item := validFeedItem(nil)
	item.PublishedAt = monitorNow.Add(1 * time.Hour)

	if err := testMonitor().ValidateFeed(feedPageWith(item)); err != nil {
		t.Fatalf("ValidateFeed() within skew window = %v", err)
	}
}

func TestQualityMonitor_ValidateFeed_FailsFastOnFirstViolation(t *testing.T) {
	bad1 := validFeedItem(nil)
	bad1.PlaybackKey = ""
	bad2 := validFeedItem(nil)
	bad2.Visibility = model.Visibility("SHADOW")

	err := testMonitor().ValidateFeed(feedPageWith(bad1, bad2))
	assertIssueKind(t, err, model.IssueMissingAsset)

	var cerr *model.ConsistencyError
	errors.As(err, &cerr)
	if cerr.Issue.ContentID != bad1.ContentID {
		t.Errorf("issue attributes content %v, want first violating item %v", cerr.Issue.ContentID, bad1.ContentID)
	}
}

func TestQualityMonitor_ValidateSeriesDetail_EmptySeries(t *testing.T) {
	detail := &model.SeriesDetail{
		ID:    uuid.New(),
		Slug:  "hollow-series",
		Title: "Hollow Series",
	}

	err := testMonitor().ValidateSeriesDetail(detail)
	assertIssueKind(t, err, model.IssueEmptySeries)
}

func TestQualityMonitor_ValidateSeriesDetail_CleanDetail(t *testing.T) {
	detail := &model.SeriesDetail{
		ID:    uuid.New(),
		Slug:  "good-series",
		Title: "Good Series",
		Seasons: []model.Season{
			{Number: 1, Episodes: []model.FeedItem{validFeedItem(nil)}},
		},
		Standalone: []model.FeedItem{validFeedItem(nil)},
	}

	if err := testMonitor().ValidateSeriesDetail(detail); err != nil {
		t.Fatalf("ValidateSeriesDetail() on clean detail = %v", err)
	}
}

func TestQualityMonitor_ValidateSeriesDetail_EpisodeViolation(t *testing.T) {
	bad := validFeedItem(nil)
	bad.PlaybackKey = ""
	detail := &model.SeriesDetail{
		ID:      uuid.New(),
		Slug:    "broken-series",
		Title:   "Broken Series",
		Seasons: []model.Season{{Number: 1, Episodes: []model.FeedItem{bad}}},
	}

	err := testMonitor().ValidateSeriesDetail(detail)
	assertIssueKind(t, err, model.IssueMissingAsset)
}
