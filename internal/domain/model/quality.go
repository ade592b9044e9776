package model

import (
	"fmt"

	"github.com/google/uuid"
)

// IssueKind identifies one class of catalog data-quality violation.
type IssueKind string

const (
	IssueMissingAsset    IssueKind = "EPISODE_MISSING_FINALIZED_ASSET"
	IssueUnknownSeries   IssueKind = "FEED_ITEM_REFERENCES_UNKNOWN_SERIES"
	IssueEmptySeries     IssueKind = "SERIES_HAS_NO_PLAYABLE_EPISODES"
	IssueFutureTimestamp IssueKind = "PUBLISH_TIMESTAMP_IN_FAR_FUTURE"
	IssueInvalidField    IssueKind = "INVALID_FIELD_VALUE"
)

// QualityIssue attributes one detected violation to the offending record.
// It is a transient signal created at validation time, never persisted.
type QualityIssue struct {
	Kind      IssueKind
	ContentID uuid.UUID
	SeriesID  *uuid.UUID
	Detail    string
}

func (i QualityIssue) String() string {
	if i.SeriesID != nil {
		return fmt.Sprintf("%s: content=%s series=%s: %s", i.Kind, i.ContentID, *i.SeriesID, i.Detail)
	}
	return fmt.Sprintf("%s: content=%s: %s", i.Kind, i.ContentID, i.Detail)
}

// ConsistencyError wraps the first quality violation found in a composed
// catalog payload. It maps to a 500 so corrupt data is reported, never
// silently served.
type ConsistencyError struct {
	Issue QualityIssue
}

func (e *ConsistencyError) Error() string {
	return "catalog consistency violation: " + e.Issue.String()
}

// NewConsistencyError builds a ConsistencyError for one issue.
func NewConsistencyError(issue QualityIssue) *ConsistencyError {
	return &ConsistencyError{Issue: issue}
}
