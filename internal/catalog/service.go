// internal/catalog/service.go
package catalog

import (
	"context"

	"libracatalog/internal/eventstore"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, isbn string) (ItemView, error)
	BorrowItem(ctx context.Context, isbn string) error
	ReturnItem(ctx context.Context, isbn string) error
	ListAvailable(ctx context.Context) ([]ItemView, error)
	ListItems(ctx context.Context) ([]ItemView, error)
	History(ctx context.Context, isbn string) ([]eventstore.Event, error)
}
