// internal/eventstore/memory.go
package eventstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MemoryJournal keeps every stream in process memory.
type MemoryJournal struct {
	mu      sync.RWMutex
	events  []Event
	streams map[uuid.UUID][]int
	tracer  trace.Tracer
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		streams: make(map[uuid.UUID][]int),
		tracer:  otel.Tracer("libracatalog/eventstore"),
	}
}

// AppendEvents atomically appends events with optimistic concurrency control
func (j *MemoryJournal) AppendEvents(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events []Event) error {
	_, span := j.tracer.Start(ctx, "eventstore.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID.String()),
			attribute.String("aggregate.type", aggregateType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	currentVersion := len(j.streams[aggregateID])
	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrConcurrencyConflict
	}

	now := time.Now().UTC()
	for i, event := range events {
		event.ID = int64(len(j.events) + 1)
		event.AggregateID = aggregateID
		event.AggregateType = aggregateType
		event.Version = expectedVersion + i + 1
		event.CreatedAt = now

		j.streams[aggregateID] = append(j.streams[aggregateID], len(j.events))
		j.events = append(j.events, event)
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// LoadEvents returns the events of one aggregate with version in
// [fromVersion, toVersion]; toVersion <= 0 means no upper bound.
func (j *MemoryJournal) LoadEvents(ctx context.Context, aggregateID uuid.UUID, fromVersion, toVersion int) ([]Event, error) {
	_, span := j.tracer.Start(ctx, "eventstore.load",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID.String()),
			attribute.Int("from.version", fromVersion),
			attribute.Int("to.version", toVersion),
		),
	)
	defer span.End()

	j.mu.RLock()
	defer j.mu.RUnlock()

	var events []Event
	for _, idx := range j.streams[aggregateID] {
		event := j.events[idx]
		if event.Version < fromVersion {
			continue
		}
		if toVersion > 0 && event.Version > toVersion {
			break
		}
		events = append(events, event)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// GetCurrentVersion returns the latest version for an aggregate
func (j *MemoryJournal) GetCurrentVersion(ctx context.Context, aggregateID uuid.UUID) (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.streams[aggregateID]), nil
}

// StreamEvents returns up to batchSize events with an ID greater than fromID,
// across all aggregates.
func (j *MemoryJournal) StreamEvents(ctx context.Context, fromID int64, batchSize int) ([]Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if fromID < 0 {
		fromID = 0
	}
	if fromID >= int64(len(j.events)) {
		return nil, nil
	}

	end := len(j.events)
	if batchSize > 0 && int(fromID)+batchSize < end {
		end = int(fromID) + batchSize
	}

	events := make([]Event, end-int(fromID))
	copy(events, j.events[fromID:end])
	return events, nil
}

var _ Journal = (*MemoryJournal)(nil)
