package book

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookreviews/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /books. Without filter parameters it returns the
// paginated listing enriched with average ratings; with one it returns
// the matching subset.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		books []Book
		err   error
	)
	switch {
	case query.Get("title") != "":
		books, err = h.service.GetBooksByTitle(r.Context(), query.Get("title"))
	case query.Get("author") != "":
		books, err = h.service.GetBooksByAuthor(r.Context(), query.Get("author"))
	case query.Get("genre") != "":
		books, err = h.service.GetBooksByGenre(r.Context(), query.Get("genre"))
	case query.Get("year_from") != "" || query.Get("year_to") != "":
		start := atoiDefault(query.Get("year_from"), 0)
		end := atoiDefault(query.Get("year_to"), 9999)
		books, err = h.service.GetBooksByYearRange(r.Context(), start, end)
	case query.Get("price_min") != "" || query.Get("price_max") != "":
		books, err = h.service.GetBooksByPriceRange(r.Context(),
			parseFloat(query.Get("price_min")), parseFloat(query.Get("price_max")))
	case query.Get("in_stock") == "true":
		books, err = h.service.GetBooksInStock(r.Context())
	default:
		h.listPaginated(w, r)
		return
	}

	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, books, nil)
}

func (h *HTTPHandler) listPaginated(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	books, pagination, err := h.service.GetAllBooks(r.Context(), page, limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, books, map[string]any{"pagination": pagination})
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, ok := h.bookFromPath(w, r)
	if !ok {
		return
	}
	httpx.JSONSuccess(w, b, nil)
}

// Create handles POST /books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON data", nil)
		return
	}

	result, err := h.service.CreateBook(r.Context(), in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !result.Success {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", errorDetails(result.Errors))
		return
	}
	httpx.JSONSuccessCreated(w, result.Book)
}

// Update handles PATCH /books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	b, ok := h.bookFromPath(w, r)
	if !ok {
		return
	}

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON data", nil)
		return
	}

	result, err := h.service.UpdateBook(r.Context(), b, in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !result.Success {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", errorDetails(result.Errors))
		return
	}
	httpx.JSONSuccess(w, result.Book, nil)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.bookFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), b); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

type updateStockReq struct {
	Delta int `json:"delta"`
}

// UpdateStock handles POST /books/{id}/stock
func (h *HTTPHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	b, ok := h.bookFromPath(w, r)
	if !ok {
		return
	}

	var req updateStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON data", nil)
		return
	}

	result, err := h.service.UpdateStock(r.Context(), b, req.Delta)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !result.Success {
		httpx.JSONError(w, http.StatusBadRequest, "INSUFFICIENT_STOCK", result.Message, nil)
		return
	}
	httpx.JSONSuccess(w, result, nil)
}

// Stats handles GET /books/stats
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetBookStatistics(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, stats, nil)
}

// Genres handles GET /books/genres
func (h *HTTPHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.GetAvailableGenres(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, genres, nil)
}

// Recent handles GET /books/recent
func (h *HTTPHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 10)
	books, err := h.service.GetRecentBooks(r.Context(), limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, books, nil)
}

func (h *HTTPHandler) bookFromPath(w http.ResponseWriter, r *http.Request) (Book, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid book id", nil)
		return Book{}, false
	}

	b, err := h.service.GetBookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return Book{}, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return Book{}, false
	}
	return b, true
}

func errorDetails(errs map[string]string) []httpx.ErrorDetail {
	details := make([]httpx.ErrorDetail, 0, len(errs))
	for field, message := range errs {
		details = append(details, httpx.ErrorDetail{Field: field, Message: message})
	}
	return details
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
