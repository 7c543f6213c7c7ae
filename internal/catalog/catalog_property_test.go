// internal/catalog/catalog_property_test.go
package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"libracatalog/internal/eventstore"
)

// catalogModel mirrors the catalog with a plain map and an insertion list.
type catalogModel struct {
	available map[string]bool
	titles    map[string]string
	order     []string
}

func TestCatalogStateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		c := New(WithJournal(eventstore.NewMemoryJournal()))
		m := &catalogModel{available: map[string]bool{}, titles: map[string]string{}}
		isbnGen := rapid.SampledFrom([]string{"1234", "5678", "9101", "9999", ""})

		t.Repeat(map[string]func(*rapid.T){
			"add": func(t *rapid.T) {
				isbn := isbnGen.Draw(t, "isbn")
				title := rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "title")
				year := rapid.IntRange(-500, 2100).Draw(t, "year")

				err := c.AddItem(ctx, NewItem(isbn, title, "author", year))
				if _, exists := m.available[isbn]; exists {
					require.ErrorIs(t, err, ErrDuplicateKey)
					id, _ := ErrorID(err)
					assert.Equal(t, isbn, id)
					return
				}
				require.NoError(t, err)
				m.available[isbn] = true
				m.titles[isbn] = title
				m.order = append(m.order, isbn)
			},
			"borrow": func(t *rapid.T) {
				isbn := isbnGen.Draw(t, "isbn")
				err := c.BorrowItem(ctx, isbn)
				avail, exists := m.available[isbn]
				switch {
				case !exists:
					require.ErrorIs(t, err, ErrNotFound)
				case !avail:
					require.ErrorIs(t, err, ErrInvalidState)
				default:
					require.NoError(t, err)
					m.available[isbn] = false
				}
			},
			"return": func(t *rapid.T) {
				isbn := isbnGen.Draw(t, "isbn")
				err := c.ReturnItem(ctx, isbn)
				avail, exists := m.available[isbn]
				switch {
				case !exists:
					require.ErrorIs(t, err, ErrNotFound)
				case avail:
					require.ErrorIs(t, err, ErrInvalidState)
				default:
					require.NoError(t, err)
					m.available[isbn] = true
				}
			},
			"": func(t *rapid.T) {
				var want []string
				for _, isbn := range m.order {
					if m.available[isbn] {
						want = append(want, isbn)
					}
				}
				got, err := c.ListAvailable(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, nilIfEmpty(isbns(got)))

				all, err := c.ListItems(ctx)
				require.NoError(t, err)
				require.Len(t, all, len(m.order))
				for _, v := range all {
					assert.Equal(t, m.titles[v.ISBN], v.Title)
					assert.Equal(t, m.available[v.ISBN], v.Available)
				}
			},
		})
	})
}

func TestBorrowReturnRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		isbn := rapid.StringMatching(`[0-9]{1,13}`).Draw(t, "isbn")
		title := rapid.String().Draw(t, "title")
		year := rapid.Int().Draw(t, "year")

		c := New()
		require.NoError(t, c.AddItem(ctx, NewItem(isbn, title, "author", year)))
		before, err := c.GetItem(ctx, isbn)
		require.NoError(t, err)

		require.NoError(t, c.BorrowItem(ctx, isbn))
		require.NoError(t, c.ReturnItem(ctx, isbn))

		after, err := c.GetItem(ctx, isbn)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
