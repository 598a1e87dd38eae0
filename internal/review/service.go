package review

import (
	"context"

	"bookreviews/internal/book"
	"bookreviews/internal/httpx"
)

// Service provides review-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new review service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Result is the outcome of a validated write. On failure Errors holds
// one message per offending field and nothing was persisted.
type Result struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors,omitempty"`
	Review  *Review           `json:"review,omitempty"`
}

// Statistics summarizes all reviews. AverageRating is nil when there
// are no reviews.
type Statistics struct {
	TotalReviews       int         `json:"total_reviews"`
	AverageRating      *float64    `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	RecentReviews      []Review    `json:"recent_reviews"`
}

// GetAllReviews returns one page of reviews plus the pagination block.
func (s *Service) GetAllReviews(ctx context.Context, page, limit int) ([]Review, httpx.Pagination, error) {
	page, limit = httpx.ClampPage(page, limit, 10)

	reviews, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, httpx.Pagination{}, err
	}
	total, err := s.repo.CountTotal(ctx)
	if err != nil {
		return nil, httpx.Pagination{}, err
	}
	return reviews, httpx.NewPagination(page, limit, total), nil
}

// GetReviewByID returns a review by its ID.
func (s *Service) GetReviewByID(ctx context.Context, id int64) (Review, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateReview validates and persists a new review bound to b. On
// validation failure nothing is written.
func (s *Service) CreateReview(ctx context.Context, b book.Book, in Input) (Result, error) {
	rv := Review{BookID: b.ID}
	rv.apply(in)
	return s.validateAndSave(ctx, &rv)
}

// UpdateReview applies the fields present in in to a copy of rv and
// persists only when the full constraint set holds. The book reference
// never changes.
func (s *Service) UpdateReview(ctx context.Context, rv Review, in Input) (Result, error) {
	rv.apply(in)
	return s.validateAndSave(ctx, &rv)
}

func (s *Service) validateAndSave(ctx context.Context, rv *Review) (Result, error) {
	if violations := httpx.ValidateStruct(rv); len(violations) > 0 {
		errs := make(map[string]string, len(violations))
		for _, v := range violations {
			if _, ok := errs[v.Field]; !ok {
				errs[v.Field] = v.Message
			}
		}
		return Result{Success: false, Errors: errs}, nil
	}

	if err := s.repo.Save(ctx, rv); err != nil {
		return Result{}, err
	}
	return Result{Success: true, Review: rv}, nil
}

// DeleteReview removes a single review. Its book and sibling reviews
// are untouched.
func (s *Service) DeleteReview(ctx context.Context, rv Review) error {
	return s.repo.Delete(ctx, &rv)
}

func (s *Service) GetReviewsForBook(ctx context.Context, b book.Book) ([]Review, error) {
	return s.repo.FindByBook(ctx, b.ID)
}

func (s *Service) GetReviewsByRating(ctx context.Context, rating int) ([]Review, error) {
	return s.repo.FindByRating(ctx, rating)
}

func (s *Service) GetReviewsByMinimumRating(ctx context.Context, minRating int) ([]Review, error) {
	return s.repo.FindByMinimumRating(ctx, minRating)
}

func (s *Service) GetRecentReviews(ctx context.Context, limit int) ([]Review, error) {
	return s.repo.FindRecent(ctx, limit)
}

func (s *Service) GetAverageRatingForBook(ctx context.Context, b book.Book) (*float64, error) {
	return s.repo.AverageRatingForBook(ctx, b.ID)
}

func (s *Service) CountReviewsForBook(ctx context.Context, b book.Book) (int, error) {
	return s.repo.CountForBook(ctx, b.ID)
}

func (s *Service) GetRatingDistributionForBook(ctx context.Context, b book.Book) (map[int]int, error) {
	return s.repo.RatingDistributionForBook(ctx, b.ID)
}

// GetReviewStatistics computes review-level aggregates: total count,
// global average, distribution across ratings 1..5, and the five most
// recent reviews.
func (s *Service) GetReviewStatistics(ctx context.Context) (Statistics, error) {
	total, err := s.repo.CountTotal(ctx)
	if err != nil {
		return Statistics{}, err
	}
	avg, err := s.repo.GlobalAverageRating(ctx)
	if err != nil {
		return Statistics{}, err
	}
	dist, err := s.repo.GlobalRatingDistribution(ctx)
	if err != nil {
		return Statistics{}, err
	}
	recent, err := s.repo.FindRecent(ctx, 5)
	if err != nil {
		return Statistics{}, err
	}

	return Statistics{
		TotalReviews:       total,
		AverageRating:      avg,
		RatingDistribution: dist,
		RecentReviews:      recent,
	}, nil
}
