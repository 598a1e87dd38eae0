package review

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookreviews/internal/book"
	"bookreviews/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerWithMocks(t *testing.T) (*HTTPHandler, *MockRepository, *MockBookFinder) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockRepo := NewMockRepository(ctrl)
	mockBooks := NewMockBookFinder(ctrl)
	return NewHTTPHandler(NewService(mockRepo), mockBooks), mockRepo, mockBooks
}

func errorCode(resp testutil.RecordResponse) string {
	errBody, ok := resp.Body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errBody["code"].(string)
	return code
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("creates review and returns 201", func(t *testing.T) {
		handler, mockRepo, mockBooks := newHandlerWithMocks(t)

		mockBooks.EXPECT().GetBookByID(gomock.Any(), int64(1)).Return(testBook, nil)
		mockRepo.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rv *Review) error {
				rv.ID = 7
				rv.CreatedAt = time.Now()
				return nil
			})

		req := testutil.NewRequest(http.MethodPost, "/reviews", map[string]any{
			"book_id": 1,
			"rating":  5,
			"comment": "Excellent read",
		})
		w := httptest.NewRecorder()
		handler.Create(w, req)

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusCreated, resp.Code)

		data, ok := resp.Body["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(7), data["id"])
		assert.NotEmpty(t, data["created_at"])
	})

	t.Run("missing fields return 400 with details", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		req := testutil.NewRequest(http.MethodPost, "/reviews", map[string]any{})
		w := httptest.NewRecorder()
		handler.Create(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))

		errBody := resp.Body["error"].(map[string]interface{})
		details, ok := errBody["details"].([]interface{})
		require.True(t, ok)
		fields := make(map[string]bool)
		for _, d := range details {
			detail := d.(map[string]interface{})
			fields[detail["field"].(string)] = true
		}
		assert.True(t, fields["book_id"])
		assert.True(t, fields["rating"])
		assert.True(t, fields["comment"])
	})

	t.Run("rating out of range returns 400", func(t *testing.T) {
		for _, rating := range []int{0, 6} {
			handler, _, _ := newHandlerWithMocks(t)

			req := testutil.NewRequest(http.MethodPost, "/reviews", map[string]any{
				"book_id": 1,
				"rating":  rating,
				"comment": "fine",
			})
			w := httptest.NewRecorder()
			handler.Create(w, req)

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
		}
	})

	t.Run("unknown book returns 400 and persists nothing", func(t *testing.T) {
		handler, _, mockBooks := newHandlerWithMocks(t)

		mockBooks.EXPECT().GetBookByID(gomock.Any(), int64(999)).Return(book.Book{}, book.ErrNotFound)

		req := testutil.NewRequest(http.MethodPost, "/reviews", map[string]any{
			"book_id": 999,
			"rating":  4,
			"comment": "ghost book",
		})
		w := httptest.NewRecorder()
		handler.Create(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "BOOK_NOT_FOUND", errorCode(resp))
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		req := httptest.NewRequest(http.MethodPost, "/reviews", badJSONBody())
		w := httptest.NewRecorder()
		handler.Create(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "BAD_REQUEST", errorCode(resp))
	})
}

func TestHTTPHandler_ListForBook(t *testing.T) {
	t.Run("returns reviews with aggregates in meta", func(t *testing.T) {
		handler, mockRepo, mockBooks := newHandlerWithMocks(t)

		avg := 4.5
		mockBooks.EXPECT().GetBookByID(gomock.Any(), int64(1)).Return(testBook, nil)
		mockRepo.EXPECT().FindByBook(gomock.Any(), int64(1)).Return([]Review{{ID: 1, BookID: 1, Rating: 5, Comment: "great"}}, nil)
		mockRepo.EXPECT().AverageRatingForBook(gomock.Any(), int64(1)).Return(&avg, nil)
		mockRepo.EXPECT().RatingDistributionForBook(gomock.Any(), int64(1)).Return(map[int]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1}, nil)

		req := testutil.NewRequest(http.MethodGet, "/books/1/reviews", nil)
		req.SetPathValue("id", "1")
		w := httptest.NewRecorder()
		handler.ListForBook(w, req)

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)

		meta, ok := resp.Body["meta"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, 4.5, meta["average_rating"])

		dist, ok := meta["rating_distribution"].(map[string]interface{})
		require.True(t, ok)
		assert.Len(t, dist, 5)
		assert.Equal(t, float64(1), dist["5"])
		assert.Equal(t, float64(0), dist["3"])
	})

	t.Run("unknown book returns 404", func(t *testing.T) {
		handler, _, mockBooks := newHandlerWithMocks(t)

		mockBooks.EXPECT().GetBookByID(gomock.Any(), int64(999)).Return(book.Book{}, book.ErrNotFound)

		req := testutil.NewRequest(http.MethodGet, "/books/999/reviews", nil)
		req.SetPathValue("id", "999")
		w := httptest.NewRecorder()
		handler.ListForBook(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	t.Run("returns 404 for missing review", func(t *testing.T) {
		handler, mockRepo, _ := newHandlerWithMocks(t)

		mockRepo.EXPECT().GetByID(gomock.Any(), int64(404)).Return(Review{}, ErrNotFound)

		req := testutil.NewRequest(http.MethodGet, "/reviews/404", nil)
		req.SetPathValue("id", "404")
		w := httptest.NewRecorder()
		handler.Get(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(resp))
	})

	t.Run("rejects non-numeric id", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		req := testutil.NewRequest(http.MethodGet, "/reviews/abc", nil)
		req.SetPathValue("id", "abc")
		w := httptest.NewRecorder()
		handler.Get(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestHTTPHandler_Delete(t *testing.T) {
	handler, mockRepo, _ := newHandlerWithMocks(t)

	existing := Review{ID: 3, BookID: 1, Rating: 2, Comment: "meh"}
	mockRepo.EXPECT().GetByID(gomock.Any(), int64(3)).Return(existing, nil)
	mockRepo.EXPECT().Delete(gomock.Any(), &existing).Return(nil)

	req := testutil.NewRequest(http.MethodDelete, "/reviews/3", nil)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	resp := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestHTTPHandler_List_RatingFilter(t *testing.T) {
	t.Run("rejects out-of-range rating", func(t *testing.T) {
		handler, _, _ := newHandlerWithMocks(t)

		req := testutil.NewRequest(http.MethodGet, "/reviews?rating=9", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		resp := testutil.RecordHTTPResponse(w)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("filters by minimum rating", func(t *testing.T) {
		handler, mockRepo, _ := newHandlerWithMocks(t)

		mockRepo.EXPECT().FindByMinimumRating(gomock.Any(), 4).Return([]Review{{ID: 1, Rating: 5}, {ID: 2, Rating: 4}}, nil)

		req := testutil.NewRequest(http.MethodGet, "/reviews?min_rating=4", nil)
		w := httptest.NewRecorder()
		handler.List(w, req)

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)

		data, ok := resp.Body["data"].([]interface{})
		require.True(t, ok)
		assert.Len(t, data, 2)
	})
}

func badJSONBody() io.Reader {
	return strings.NewReader("{not json")
}
