// internal/clients/catalog_client_test.go
package clients

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libracatalog/internal/catalog"
	"libracatalog/internal/eventstore"
)

func newTestClient(t *testing.T) *CatalogClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := catalog.New(catalog.WithJournal(eventstore.NewMemoryJournal()))
	srv := httptest.NewServer(catalog.NewRouter(c, logger, nil))
	t.Cleanup(srv.Close)
	return NewCatalogClient(srv.URL+"/", srv.Client())
}

func TestCatalogClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	require.NoError(t, client.AddItem(ctx, catalog.NewItem("1234", "Effective Java", "Joshua Bloch", 2018)))
	require.NoError(t, client.AddItem(ctx, catalog.NewItem("5678", "Clean Code", "Robert C. Martin", 2008)))

	item, err := client.GetItem(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, catalog.ItemView{ISBN: "1234", Title: "Effective Java", Author: "Joshua Bloch", Year: 2018, Available: true}, item)

	require.NoError(t, client.BorrowItem(ctx, "1234"))
	available, err := client.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "5678", available[0].ISBN)

	require.NoError(t, client.ReturnItem(ctx, "1234"))
	all, err := client.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	history, err := client.History(ctx, "1234")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, catalog.EventItemBorrowed, history[1].EventType)
}

func TestCatalogClient_TypedErrors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	require.NoError(t, client.AddItem(ctx, catalog.NewItem("1234", "Effective Java", "Joshua Bloch", 2018)))

	err := client.AddItem(ctx, catalog.NewItem("1234", "Duplicate Book", "Some Author", 2020))
	require.ErrorIs(t, err, catalog.ErrDuplicateKey)
	assert.Equal(t, "Book with ISBN 1234 already exists.", err.Error())

	err = client.BorrowItem(ctx, "9999")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, "Book with ISBN 9999 not found.", err.Error())

	err = client.ReturnItem(ctx, "1234")
	require.ErrorIs(t, err, catalog.ErrInvalidState)
	assert.Equal(t, "Book with ISBN 1234 is not borrowed.", err.Error())

	require.NoError(t, client.BorrowItem(ctx, "1234"))
	err = client.BorrowItem(ctx, "1234")
	require.ErrorIs(t, err, catalog.ErrInvalidState)
	assert.Equal(t, "Book with ISBN 1234 is already borrowed.", err.Error())

	assert.Equal(t, gobreaker.StateClosed, client.breaker.State(), "catalog errors must not trip the breaker")
}

func TestCatalogClient_BreakerOpensOnServerFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewCatalogClient(srv.URL, srv.Client())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.ListItems(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status code: 502")
	}

	_, err := client.ListItems(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestCatalogClient_ISBNsNeedingEscapes(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	isbns := []string{"a%41", "100%", "a/b", "a b", "aA"}
	for _, isbn := range isbns {
		require.NoError(t, client.AddItem(ctx, catalog.NewItem(isbn, "T", "A", 2000)))
	}

	for _, isbn := range isbns[:4] {
		require.NoError(t, client.BorrowItem(ctx, isbn), isbn)
		item, err := client.GetItem(ctx, isbn)
		require.NoError(t, err)
		assert.Equal(t, isbn, item.ISBN)
		assert.False(t, item.Available, isbn)
	}

	item, err := client.GetItem(ctx, "aA")
	require.NoError(t, err)
	assert.True(t, item.Available)

	history, err := client.History(ctx, "100%")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
