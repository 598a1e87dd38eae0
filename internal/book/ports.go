package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage. All read
// operations are pure; Save and Delete are the only mutators and each
// commits as a single unit.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Book, error)
	ListWithAverageRating(ctx context.Context, page, limit int) ([]WithRating, error)
	AllWithAverageRating(ctx context.Context) ([]WithRating, error)
	CountTotal(ctx context.Context) (int, error)
	FindByTitle(ctx context.Context, title string) ([]Book, error)
	FindByAuthor(ctx context.Context, author string) ([]Book, error)
	FindByGenre(ctx context.Context, genre string) ([]Book, error)
	FindByYearRange(ctx context.Context, start, end int) ([]Book, error)
	FindByPriceRange(ctx context.Context, min, max *float64) ([]Book, error)
	FindInStock(ctx context.Context) ([]Book, error)
	AvailableGenres(ctx context.Context) ([]string, error)
	FindRecent(ctx context.Context, limit int) ([]Book, error)
	Save(ctx context.Context, b *Book) error
	Delete(ctx context.Context, b *Book) error
}
