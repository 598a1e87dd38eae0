package book

import (
	"context"
	"errors"

	"bookreviews/internal/httpx"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Result is the outcome of a validated write. On failure Errors holds
// one message per offending field and nothing was persisted.
type Result struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors,omitempty"`
	Book    *Book             `json:"book,omitempty"`
}

// StockResult is the outcome of a stock adjustment.
type StockResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NewStock int    `json:"new_stock,omitempty"`
}

// Statistics summarizes the book inventory.
type Statistics struct {
	TotalBooks      int      `json:"total_books"`
	BooksInStock    int      `json:"books_in_stock"`
	OutOfStock      int      `json:"out_of_stock"`
	TotalGenres     int      `json:"total_genres"`
	AvailableGenres []string `json:"available_genres"`
}

// GetAllBooks returns one page of books enriched with their average
// rating, plus the pagination block.
func (s *Service) GetAllBooks(ctx context.Context, page, limit int) ([]WithRating, httpx.Pagination, error) {
	page, limit = httpx.ClampPage(page, limit, 10)

	books, err := s.repo.ListWithAverageRating(ctx, page, limit)
	if err != nil {
		return nil, httpx.Pagination{}, err
	}
	total, err := s.repo.CountTotal(ctx)
	if err != nil {
		return nil, httpx.Pagination{}, err
	}
	return books, httpx.NewPagination(page, limit, total), nil
}

// GetBookByID returns a book by its ID.
func (s *Service) GetBookByID(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateBook validates and persists a new book built from in. On
// validation failure nothing is written.
func (s *Service) CreateBook(ctx context.Context, in Input) (Result, error) {
	var b Book
	b.apply(in)
	return s.validateAndSave(ctx, &b)
}

// UpdateBook applies the fields present in in to a copy of b, validates
// the full constraint set, and persists only when everything holds.
func (s *Service) UpdateBook(ctx context.Context, b Book, in Input) (Result, error) {
	b.apply(in)
	return s.validateAndSave(ctx, &b)
}

func (s *Service) validateAndSave(ctx context.Context, b *Book) (Result, error) {
	if errs := validationErrors(b); len(errs) > 0 {
		return Result{Success: false, Errors: errs}, nil
	}

	if err := s.repo.Save(ctx, b); err != nil {
		if errors.Is(err, ErrDuplicateISBN) {
			return Result{Success: false, Errors: map[string]string{"isbn": "isbn is already in use"}}, nil
		}
		return Result{}, err
	}
	return Result{Success: true, Book: b}, nil
}

func validationErrors(b *Book) map[string]string {
	violations := httpx.ValidateStruct(b)
	if len(violations) == 0 {
		return nil
	}
	errs := make(map[string]string, len(violations))
	for _, v := range violations {
		if _, ok := errs[v.Field]; !ok {
			errs[v.Field] = v.Message
		}
	}
	return errs
}

// UpdateStock adjusts the stock by delta. A delta that would push the
// stock below zero fails and leaves the book untouched.
func (s *Service) UpdateStock(ctx context.Context, b Book, delta int) (StockResult, error) {
	if b.Stock+delta < 0 {
		return StockResult{Success: false, Message: "Insufficient stock"}, nil
	}

	b.Stock += delta
	if err := s.repo.Save(ctx, &b); err != nil {
		return StockResult{}, err
	}
	return StockResult{Success: true, Message: "Stock updated", NewStock: b.Stock}, nil
}

// DeleteBook removes the book and, by cascade, all its reviews.
func (s *Service) DeleteBook(ctx context.Context, b Book) error {
	return s.repo.Delete(ctx, &b)
}

// GetBookStatistics computes inventory-level aggregates from one scan
// of the rating-enriched listing, so the stock counts and the listing
// always agree on which books exist.
func (s *Service) GetBookStatistics(ctx context.Context) (Statistics, error) {
	books, err := s.repo.AllWithAverageRating(ctx)
	if err != nil {
		return Statistics{}, err
	}
	genres, err := s.repo.AvailableGenres(ctx)
	if err != nil {
		return Statistics{}, err
	}

	inStock := 0
	for _, b := range books {
		if b.Stock > 0 {
			inStock++
		}
	}

	return Statistics{
		TotalBooks:      len(books),
		BooksInStock:    inStock,
		OutOfStock:      len(books) - inStock,
		TotalGenres:     len(genres),
		AvailableGenres: genres,
	}, nil
}

func (s *Service) GetBooksByTitle(ctx context.Context, title string) ([]Book, error) {
	return s.repo.FindByTitle(ctx, title)
}

func (s *Service) GetBooksByAuthor(ctx context.Context, author string) ([]Book, error) {
	return s.repo.FindByAuthor(ctx, author)
}

func (s *Service) GetBooksByGenre(ctx context.Context, genre string) ([]Book, error) {
	return s.repo.FindByGenre(ctx, genre)
}

func (s *Service) GetBooksByYearRange(ctx context.Context, start, end int) ([]Book, error) {
	return s.repo.FindByYearRange(ctx, start, end)
}

func (s *Service) GetBooksByPriceRange(ctx context.Context, min, max *float64) ([]Book, error) {
	return s.repo.FindByPriceRange(ctx, min, max)
}

func (s *Service) GetBooksInStock(ctx context.Context) ([]Book, error) {
	return s.repo.FindInStock(ctx)
}

func (s *Service) GetAvailableGenres(ctx context.Context) ([]string, error) {
	return s.repo.AvailableGenres(ctx)
}

func (s *Service) GetRecentBooks(ctx context.Context, limit int) ([]Book, error) {
	return s.repo.FindRecent(ctx, limit)
}
