// internal/catalog/implementation.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"libracatalog/internal/eventstore"
)

const instrumentationName = "libracatalog/catalog"

// bookNamespace scopes the name-based UUIDs that identify each book's
// journal stream.
var bookNamespace = uuid.MustParse("6f1c1f0e-3b5a-4c1e-9a57-2d0f3c8e7b41")

// AggregateID returns the journal stream id for an ISBN.
func AggregateID(isbn string) uuid.UUID {
	return uuid.NewSHA1(bookNamespace, []byte(isbn))
}

// Catalog is an in-memory, ISBN-keyed collection of items. Every operation
// validates before it mutates, so a failed call leaves the catalog unchanged.
// It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	items    map[string]*Item
	order    []string
	versions map[string]int

	journal eventstore.Journal
	tracer  trace.Tracer
	ops     metric.Int64Counter
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithJournal records every successful transition in j.
func WithJournal(j eventstore.Journal) Option {
	return func(c *Catalog) { c.journal = j }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Catalog) { c.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Catalog) { c.ops = newOpsCounter(mp.Meter(instrumentationName)) }
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		items:    make(map[string]*Item),
		versions: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(instrumentationName)
	}
	if c.ops == nil {
		c.ops = newOpsCounter(otel.Meter(instrumentationName))
	}
	return c
}

func newOpsCounter(meter metric.Meter) metric.Int64Counter {
	counter, err := meter.Int64Counter("catalog.operations",
		metric.WithDescription("Catalog operations by kind and outcome"),
	)
	if err != nil {
		return noop.Int64Counter{}
	}
	return counter
}

// AddItem inserts a copy of item under its ISBN. Later changes to item do not
// reach the catalog.
func (c *Catalog) AddItem(ctx context.Context, item *Item) (err error) {
	if item == nil {
		return errors.New("cannot add nil item")
	}
	ctx, span := c.start(ctx, "catalog.add", item.ISBN())
	defer func() { c.finish(ctx, span, "add", err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	isbn := item.ISBN()
	if _, exists := c.items[isbn]; exists {
		return &DuplicateKeyError{ID: isbn}
	}

	eventData := ItemAddedEvent{
		ISBN:   isbn,
		Title:  item.Title(),
		Author: item.Author(),
		Year:   item.Year(),
	}
	if err := c.record(ctx, isbn, EventItemAdded, eventData); err != nil {
		return err
	}

	stored := *item
	c.items[isbn] = &stored
	c.order = append(c.order, isbn)
	return nil
}

// GetItem returns a snapshot of the item with the ISBN.
func (c *Catalog) GetItem(ctx context.Context, isbn string) (ItemView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, err := c.lookup(isbn)
	if err != nil {
		return ItemView{}, err
	}
	return item.View(), nil
}

// BorrowItem moves an available item to borrowed.
func (c *Catalog) BorrowItem(ctx context.Context, isbn string) (err error) {
	ctx, span := c.start(ctx, "catalog.borrow", isbn)
	defer func() { c.finish(ctx, span, "borrow", err) }()

	return c.transition(ctx, isbn, StateAvailable, StateBorrowed, EventItemBorrowed)
}

// ReturnItem moves a borrowed item back to available.
func (c *Catalog) ReturnItem(ctx context.Context, isbn string) (err error) {
	ctx, span := c.start(ctx, "catalog.return", isbn)
	defer func() { c.finish(ctx, span, "return", err) }()

	return c.transition(ctx, isbn, StateBorrowed, StateAvailable, EventItemReturned)
}

func (c *Catalog) transition(ctx context.Context, isbn string, from, to State, eventType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.lookup(isbn)
	if err != nil {
		return err
	}
	if current := stateOf(item.IsAvailable()); current != from {
		return &InvalidStateError{ID: isbn, Current: current}
	}

	eventData := ItemStateChangedEvent{ISBN: isbn, From: from, To: to}
	if err := c.record(ctx, isbn, eventType, eventData); err != nil {
		return err
	}

	item.SetAvailable(to == StateAvailable)
	return nil
}

// ListAvailable returns the available items in insertion order.
func (c *Catalog) ListAvailable(ctx context.Context) ([]ItemView, error) {
	return c.list(func(i *Item) bool { return i.IsAvailable() }), nil
}

// ListItems returns every item in insertion order.
func (c *Catalog) ListItems(ctx context.Context) ([]ItemView, error) {
	return c.list(func(*Item) bool { return true }), nil
}

func (c *Catalog) list(keep func(*Item) bool) []ItemView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	views := make([]ItemView, 0, len(c.order))
	for _, isbn := range c.order {
		if item := c.items[isbn]; keep(item) {
			views = append(views, item.View())
		}
	}
	return views
}

// History returns the journaled events of an item, oldest first. Without a
// journal the history is empty.
func (c *Catalog) History(ctx context.Context, isbn string) ([]eventstore.Event, error) {
	c.mu.RLock()
	_, err := c.lookup(isbn)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if c.journal == nil {
		return nil, nil
	}

	events, err := c.journal.LoadEvents(ctx, AggregateID(isbn), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return events, nil
}

// lookup must be called with c.mu held.
func (c *Catalog) lookup(isbn string) (*Item, error) {
	item, ok := c.items[isbn]
	if !ok {
		return nil, &NotFoundError{ID: isbn}
	}
	return item, nil
}

// record must be called with c.mu held for writing.
func (c *Catalog) record(ctx context.Context, isbn, eventType string, payload interface{}) error {
	if c.journal == nil {
		return nil
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	expected, err := c.expectedVersion(ctx, isbn)
	if err != nil {
		return err
	}
	event := eventstore.Event{
		EventType: eventType,
		EventData: jsonData,
	}
	if err := c.journal.AppendEvents(ctx, AggregateID(isbn), aggregateType, expected, []eventstore.Event{event}); err != nil {
		if errors.Is(err, eventstore.ErrConcurrencyConflict) {
			// another writer shares the stream; reread the version next time
			delete(c.versions, isbn)
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	c.versions[isbn] = expected + 1
	return nil
}

// expectedVersion must be called with c.mu held for writing.
func (c *Catalog) expectedVersion(ctx context.Context, isbn string) (int, error) {
	if version, ok := c.versions[isbn]; ok {
		return version, nil
	}
	version, err := c.journal.GetCurrentVersion(ctx, AggregateID(isbn))
	if err != nil {
		return 0, fmt.Errorf("failed to read journal version: %w", err)
	}
	c.versions[isbn] = version
	return version, nil
}

func (c *Catalog) start(ctx context.Context, name, isbn string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("item.isbn", isbn)))
}

func (c *Catalog) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	span.End()

	c.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}

var _ Service = (*Catalog)(nil)
