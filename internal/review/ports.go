package review

import (
	"context"

	"bookreviews/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=review

// Repository defines the contract for review data storage.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Review, error)
	List(ctx context.Context, page, limit int) ([]Review, error)
	CountTotal(ctx context.Context) (int, error)
	FindByBook(ctx context.Context, bookID int64) ([]Review, error)
	FindByRating(ctx context.Context, rating int) ([]Review, error)
	FindByMinimumRating(ctx context.Context, minRating int) ([]Review, error)
	FindRecent(ctx context.Context, limit int) ([]Review, error)
	AverageRatingForBook(ctx context.Context, bookID int64) (*float64, error)
	CountForBook(ctx context.Context, bookID int64) (int, error)
	RatingDistributionForBook(ctx context.Context, bookID int64) (map[int]int, error)
	GlobalAverageRating(ctx context.Context) (*float64, error)
	GlobalRatingDistribution(ctx context.Context) (map[int]int, error)
	Save(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, rv *Review) error
}

// BookFinder resolves the book a review is being attached to.
type BookFinder interface {
	GetBookByID(ctx context.Context, id int64) (book.Book, error)
}
