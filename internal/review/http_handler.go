package review

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookreviews/internal/book"
	"bookreviews/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	books   BookFinder
}

func NewHTTPHandler(service *Service, books BookFinder) *HTTPHandler {
	return &HTTPHandler{service: service, books: books}
}

type createReviewReq struct {
	BookID  *int64  `json:"book_id" validate:"required,gt=0"`
	Rating  *int    `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"required"`
}

// Create handles POST /reviews
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON data", nil)
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		details := make([]httpx.ErrorDetail, 0, len(validationErrors))
		for _, ve := range validationErrors {
			details = append(details, httpx.ErrorDetail{Field: ve.Field, Message: ve.Message})
		}
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	// An unknown book is a client error, not a missing resource, so
	// the response stays a 400.
	b, err := h.books.GetBookByID(r.Context(), *req.BookID)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			httpx.JSONError(w, http.StatusBadRequest, "BOOK_NOT_FOUND", "Book not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	result, err := h.service.CreateReview(r.Context(), b, Input{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !result.Success {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", errorDetails(result.Errors))
		return
	}

	httpx.JSONSuccessCreated(w, map[string]any{
		"id":         result.Review.ID,
		"created_at": result.Review.CreatedAt,
	})
}

// List handles GET /reviews
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if ratingStr := query.Get("rating"); ratingStr != "" {
		rating, err := strconv.Atoi(ratingStr)
		if err != nil || rating < 1 || rating > 5 {
			httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid rating filter", nil)
			return
		}
		reviews, err := h.service.GetReviewsByRating(r.Context(), rating)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		httpx.JSONSuccess(w, reviews, nil)
		return
	}

	if minRatingStr := query.Get("min_rating"); minRatingStr != "" {
		minRating, err := strconv.Atoi(minRatingStr)
		if err != nil || minRating < 1 || minRating > 5 {
			httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid rating filter", nil)
			return
		}
		reviews, err := h.service.GetReviewsByMinimumRating(r.Context(), minRating)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		httpx.JSONSuccess(w, reviews, nil)
		return
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	reviews, pagination, err := h.service.GetAllReviews(r.Context(), page, limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, reviews, map[string]any{"pagination": pagination})
}

// Get handles GET /reviews/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.reviewFromPath(w, r)
	if !ok {
		return
	}
	httpx.JSONSuccess(w, rv, nil)
}

// Update handles PATCH /reviews/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.reviewFromPath(w, r)
	if !ok {
		return
	}

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON data", nil)
		return
	}

	result, err := h.service.UpdateReview(r.Context(), rv, in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !result.Success {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", errorDetails(result.Errors))
		return
	}
	httpx.JSONSuccess(w, result.Review, nil)
}

// Delete handles DELETE /reviews/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rv, ok := h.reviewFromPath(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), rv); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// ListForBook handles GET /books/{id}/reviews
func (h *HTTPHandler) ListForBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid book id", nil)
		return
	}

	b, err := h.books.GetBookByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	reviews, err := h.service.GetReviewsForBook(r.Context(), b)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	avg, err := h.service.GetAverageRatingForBook(r.Context(), b)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	dist, err := h.service.GetRatingDistributionForBook(r.Context(), b)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, reviews, map[string]any{
		"average_rating":      avg,
		"rating_distribution": dist,
	})
}

// Stats handles GET /reviews/stats
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetReviewStatistics(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, stats, nil)
}

// Recent handles GET /reviews/recent
func (h *HTTPHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	reviews, err := h.service.GetRecentReviews(r.Context(), limit)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, reviews, nil)
}

func (h *HTTPHandler) reviewFromPath(w http.ResponseWriter, r *http.Request) (Review, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid review id", nil)
		return Review{}, false
	}

	rv, err := h.service.GetReviewByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Review not found", nil)
			return Review{}, false
		}
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return Review{}, false
	}
	return rv, true
}

func errorDetails(errs map[string]string) []httpx.ErrorDetail {
	details := make([]httpx.ErrorDetail, 0, len(errs))
	for field, message := range errs {
		details = append(details, httpx.ErrorDetail{Field: field, Message: message})
	}
	return details
}
