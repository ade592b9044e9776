package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/AnuragPathakTDL/ContentService/internal/domain/model"
)

// EventType identifies one kind of catalog mutation event.
type EventType string

const (
	EventAssetRegistered EventType = "catalog.asset.registered"
	EventMetricsApplied  EventType = "catalog.metrics.applied"
)

// CatalogEvent is one record appended to the catalog mutation stream.
// PartitionKey preserves per-entity ordering for downstream consumers.
type CatalogEvent struct {
	EventID      uuid.UUID       `json:"event_id"`
	Type         EventType       `json:"type"`
	PartitionKey string          `json:"partition_key"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// MetricsTask is one engagement-metrics message consumed by the worker.
// RetryCount tracks republish attempts after handler failures.
type MetricsTask struct {
	Event      model.MetricsEvent `json:"event"`
	RetryCount int                `json:"retry_count"`
}

// EventStream defines the append-only catalog mutation stream.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type EventStream interface {
	// Publish appends an event to the stream. Publish order is preserved per
	// partition key. Failures surface to the caller so the mutation can be
	// retried or rejected.
	Publish(ctx context.Context, partitionKey string, event CatalogEvent) error

	// Close gracefully closes the connection to the stream.
	Close() error
}

// MetricsConsumer consumes engagement-metrics tasks for the worker service.
type MetricsConsumer interface {
	// ConsumeMetricsTasks calls handler for each received task. Returns when
	// the context is cancelled or the channel closes.
	ConsumeMetricsTasks(ctx context.Context, handler func(task MetricsTask) error) error

	// Close gracefully closes the connection.
	Close() error
}
