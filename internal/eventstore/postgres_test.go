// internal/eventstore/postgres_test.go
package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB attempts to connect to a PostgreSQL database for testing.
// It skips the test if the connection cannot be established.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	pgUser := getEnv("PGUSER", "user")
	pgPassword := getEnv("PGPASSWORD", "password")
	pgHost := getEnv("PGHOST", "localhost")
	pgPort := getEnv("PGPORT", "5432")
	pgDB := getEnv("PGDATABASE", "testdb")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable connect_timeout=2",
		pgHost, pgPort, pgUser, pgPassword, pgDB)

	db, err := OpenPostgres(context.Background(), connStr)
	if err != nil {
		t.Skipf("skipping postgres journal tests: %v", err)
	}
	return db
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func TestPostgresJournal_AppendAndLoad(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewPostgresJournal(db)
	id := uuid.New()

	require.NoError(t, store.AppendEvents(ctx, id, "book", 0, []Event{newTestEvent(t, "one"), newTestEvent(t, "two")}))

	err := store.AppendEvents(ctx, id, "book", 0, []Event{newTestEvent(t, "stale")})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	events, err := store.LoadEvents(ctx, id, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Version)
	assert.JSONEq(t, `{"message":"two"}`, string(events[1].EventData))

	version, err := store.GetCurrentVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	streamed, err := store.StreamEvents(ctx, events[0].ID-1, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(streamed), 2)
}

func BenchmarkPostgresAppendEvents(b *testing.B) {
	db := setupTestDB(b)
	defer db.Close()
	store := NewPostgresJournal(db)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		aggregateID := uuid.New()
		events := []Event{{EventType: "TestEvent", EventData: []byte(fmt.Sprintf(`{"message":"event %d"}`, i))}}
		b.StartTimer()

		if err := store.AppendEvents(context.Background(), aggregateID, "book", 0, events); err != nil {
			b.Fatalf("AppendEvents failed: %v", err)
		}
	}
}
