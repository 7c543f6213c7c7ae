// internal/clients/catalog_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"libracatalog/internal/catalog"
	"libracatalog/internal/eventstore"
)

// CatalogClient talks to a catalog served by catalog.NewRouter. Catalog
// errors come back as the same typed errors the in-process catalog returns;
// they do not count against the circuit breaker.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewCatalogClient creates a client for the catalog at baseURL.
func NewCatalogClient(baseURL string, httpClient *http.Client) *CatalogClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "catalog",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				_, domain := catalog.ErrorID(err)
				return err == nil || domain
			},
		}),
	}
}

func (c *CatalogClient) AddItem(ctx context.Context, item *catalog.Item) error {
	if item == nil {
		return errors.New("cannot add nil item")
	}
	req := catalog.AddItemRequest{
		ISBN:   item.ISBN(),
		Title:  item.Title(),
		Author: item.Author(),
		Year:   item.Year(),
	}
	return c.do(ctx, http.MethodPost, "/items", req, http.StatusCreated, nil)
}

func (c *CatalogClient) GetItem(ctx context.Context, isbn string) (catalog.ItemView, error) {
	var item catalog.ItemView
	err := c.do(ctx, http.MethodGet, itemPath(isbn, ""), nil, http.StatusOK, &item)
	return item, err
}

func (c *CatalogClient) BorrowItem(ctx context.Context, isbn string) error {
	return c.do(ctx, http.MethodPost, itemPath(isbn, "/borrow"), nil, http.StatusOK, nil)
}

func (c *CatalogClient) ReturnItem(ctx context.Context, isbn string) error {
	return c.do(ctx, http.MethodPost, itemPath(isbn, "/return"), nil, http.StatusOK, nil)
}

func (c *CatalogClient) ListAvailable(ctx context.Context) ([]catalog.ItemView, error) {
	var items []catalog.ItemView
	err := c.do(ctx, http.MethodGet, "/items?available=true", nil, http.StatusOK, &items)
	return items, err
}

func (c *CatalogClient) ListItems(ctx context.Context) ([]catalog.ItemView, error) {
	var items []catalog.ItemView
	err := c.do(ctx, http.MethodGet, "/items", nil, http.StatusOK, &items)
	return items, err
}

func (c *CatalogClient) History(ctx context.Context, isbn string) ([]eventstore.Event, error) {
	var events []eventstore.Event
	err := c.do(ctx, http.MethodGet, itemPath(isbn, "/history"), nil, http.StatusOK, &events)
	return events, err
}

func itemPath(isbn, suffix string) string {
	return "/items/" + url.PathEscape(isbn) + suffix
}

func (c *CatalogClient) do(ctx context.Context, method, path string, in interface{}, wantStatus int, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, wantStatus, out)
	})
	return err
}

func (c *CatalogClient) roundTrip(ctx context.Context, method, path string, in interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errResp catalog.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Code == "" {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return errResp.Err()
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ catalog.Service = (*CatalogClient)(nil)
