// internal/catalog/handler.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeNotFound     = "not_found"
	CodeInvalidState = "invalid_state"
	CodeBadRequest   = "bad_request"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	ID      string `json:"id,omitempty"`
	State   State  `json:"state,omitempty"`
	Message string `json:"message"`
}

// Err rebuilds the typed catalog error the response was produced from.
func (e ErrorResponse) Err() error {
	switch e.Code {
	case CodeDuplicateKey:
		return &DuplicateKeyError{ID: e.ID}
	case CodeNotFound:
		return &NotFoundError{ID: e.ID}
	case CodeInvalidState:
		return &InvalidStateError{ID: e.ID, Current: e.State}
	default:
		return errors.New(e.Message)
	}
}

// AddItemRequest is the body of POST /items.
type AddItemRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the item endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/items", func(r chi.Router) {
		r.Post("/", h.handleAddItem)
		r.Get("/", h.handleListItems)
		r.Route("/{isbn}", func(r chi.Router) {
			r.Get("/", h.handleGetItem)
			r.Post("/borrow", h.handleBorrowItem)
			r.Post("/return", h.handleReturnItem)
			r.Get("/history", h.handleHistory)
		})
	})
	return r
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: err.Error()})
		return
	}
	if req.ISBN == "" {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: "isbn is required"})
		return
	}

	item := NewItem(req.ISBN, req.Title, req.Author, req.Year)
	if err := h.service.AddItem(r.Context(), item); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, item.View())
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	list := h.service.ListItems
	if r.URL.Query().Get("available") == "true" {
		list = h.service.ListAvailable
	}

	items, err := list(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	isbn, ok := h.isbnParam(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), isbn)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleBorrowItem(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.BorrowItem, false)
}

func (h *Handler) handleReturnItem(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.ReturnItem, true)
}

// handleTransition responds with the item as op left it. Only availability
// changes after add, so a concurrent transition between op and the read
// cannot leak into the response.
func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, isbn string) error, available bool) {
	isbn, ok := h.isbnParam(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), isbn); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	item, err := h.service.GetItem(r.Context(), isbn)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	item.Available = available
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	isbn, ok := h.isbnParam(w, r)
	if !ok {
		return
	}

	events, err := h.service.History(r.Context(), isbn)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if events == nil {
		h.writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

// isbnParam returns the decoded ISBN path segment. chi matches on RawPath when
// the request has one, and only then is the segment still escaped.
func (h *Handler) isbnParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	isbn := chi.URLParam(r, "isbn")
	var err error
	if r.URL.RawPath != "" {
		isbn, err = url.PathUnescape(isbn)
	}
	if err != nil || isbn == "" {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Code: CodeBadRequest, Message: "invalid isbn"})
		return "", false
	}
	return isbn, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "catalog operation failed", "path", r.URL.Path, "err", err)
	} else {
		h.logger.DebugContext(r.Context(), "catalog operation rejected", "path", r.URL.Path, "code", body.Code, "isbn", body.ID)
	}
	h.writeError(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var inv *InvalidStateError
	switch {
	case errors.Is(err, ErrDuplicateKey):
		id, _ := ErrorID(err)
		return http.StatusConflict, ErrorResponse{Code: CodeDuplicateKey, ID: id, Message: err.Error()}
	case errors.Is(err, ErrNotFound):
		id, _ := ErrorID(err)
		return http.StatusNotFound, ErrorResponse{Code: CodeNotFound, ID: id, Message: err.Error()}
	case errors.As(err, &inv):
		return http.StatusConflict, ErrorResponse{Code: CodeInvalidState, ID: inv.ID, State: inv.Current, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: CodeInternal, Message: err.Error()}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Unable to write response", "err", err)
	}
}
