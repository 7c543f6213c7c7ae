// internal/catalog/domain.go
package catalog

import "fmt"

// Item is a book in the catalog. Everything except availability is fixed at
// construction.
type Item struct {
	isbn      string
	title     string
	author    string
	year      int
	available bool
}

// NewItem creates an item that is available for borrowing.
func NewItem(isbn, title, author string, year int) *Item {
	return &Item{
		isbn:      isbn,
		title:     title,
		author:    author,
		year:      year,
		available: true,
	}
}

func (i *Item) ISBN() string   { return i.isbn }
func (i *Item) Title() string  { return i.title }
func (i *Item) Author() string { return i.author }
func (i *Item) Year() int      { return i.year }

// IsAvailable reports whether the item can be borrowed.
func (i *Item) IsAvailable() bool {
	return i.available
}

// SetAvailable overwrites the availability flag. The catalog guards the
// transitions; the item does not.
func (i *Item) SetAvailable(available bool) {
	i.available = available
}

// View returns a copy of the item's current state.
func (i *Item) View() ItemView {
	return ItemView{
		ISBN:      i.isbn,
		Title:     i.title,
		Author:    i.author,
		Year:      i.year,
		Available: i.available,
	}
}

func (i *Item) String() string {
	return i.View().String()
}

// ItemView is a read-only snapshot of an Item, safe to hand out of the
// catalog and to encode.
type ItemView struct {
	ISBN      string `json:"isbn" yaml:"isbn"`
	Title     string `json:"title" yaml:"title"`
	Author    string `json:"author" yaml:"author"`
	Year      int    `json:"year" yaml:"year"`
	Available bool   `json:"available" yaml:"available"`
}

func (v ItemView) String() string {
	return fmt.Sprintf("Book {ISBN='%s', title='%s', author='%s', year=%d, available=%t}",
		v.ISBN, v.Title, v.Author, v.Year, v.Available)
}

// State is the lifecycle position of an item.
type State string

const (
	StateAvailable State = "available"
	StateBorrowed  State = "borrowed"
)

func stateOf(available bool) State {
	if available {
		return StateAvailable
	}
	return StateBorrowed
}

// Event types written to the journal.
const (
	EventItemAdded    = "ItemAdded"
	EventItemBorrowed = "ItemBorrowed"
	EventItemReturned = "ItemReturned"
)

const aggregateType = "book"

// ItemAddedEvent is journaled when a new item enters the catalog.
type ItemAddedEvent struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// ItemStateChangedEvent is journaled on borrow and return.
type ItemStateChangedEvent struct {
	ISBN string `json:"isbn"`
	From State  `json:"from"`
	To   State  `json:"to"`
}
