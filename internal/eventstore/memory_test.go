// internal/eventstore/memory_test.go
package eventstore

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Message string `json:"message"`
}

func newTestEvent(t *testing.T, msg string) Event {
	t.Helper()
	data, err := json.Marshal(testEvent{Message: msg})
	require.NoError(t, err)
	return Event{EventType: "TestEvent", EventData: data}
}

func TestMemoryJournal_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	id := uuid.New()

	require.NoError(t, j.AppendEvents(ctx, id, "book", 0, []Event{newTestEvent(t, "one"), newTestEvent(t, "two")}))
	require.NoError(t, j.AppendEvents(ctx, id, "book", 2, []Event{newTestEvent(t, "three")}))

	events, err := j.LoadEvents(ctx, id, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i+1, e.Version)
		assert.Equal(t, id, e.AggregateID)
		assert.Equal(t, "book", e.AggregateType)
		assert.False(t, e.CreatedAt.IsZero())
	}

	ranged, err := j.LoadEvents(ctx, id, 2, 2)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.JSONEq(t, `{"message":"two"}`, string(ranged[0].EventData))

	version, err := j.GetCurrentVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestMemoryJournal_VersionConflict(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	id := uuid.New()

	require.NoError(t, j.AppendEvents(ctx, id, "book", 0, []Event{newTestEvent(t, "one")}))

	err := j.AppendEvents(ctx, id, "book", 0, []Event{newTestEvent(t, "stale")})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	err = j.AppendEvents(ctx, id, "book", -1, nil)
	assert.ErrorIs(t, err, ErrInvalidVersion)

	events, err := j.LoadEvents(ctx, id, 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryJournal_ConcurrentAppendsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	id := uuid.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.AppendEvents(ctx, id, "book", 0, []Event{{EventType: "TestEvent", EventData: json.RawMessage(`{}`)}}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestMemoryJournal_StreamEvents(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, j.AppendEvents(ctx, a, "book", 0, []Event{newTestEvent(t, "a1")}))
	require.NoError(t, j.AppendEvents(ctx, b, "book", 0, []Event{newTestEvent(t, "b1")}))
	require.NoError(t, j.AppendEvents(ctx, a, "book", 1, []Event{newTestEvent(t, "a2")}))

	first, err := j.StreamEvents(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].ID)
	assert.Equal(t, b, first[1].AggregateID)

	rest, err := j.StreamEvents(ctx, first[len(first)-1].ID, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(3), rest[0].ID)
	assert.Equal(t, 2, rest[0].Version)

	none, err := j.StreamEvents(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
