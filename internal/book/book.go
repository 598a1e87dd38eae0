package book

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrDuplicateISBN is returned when saving a book whose ISBN is already
// taken by another book.
var ErrDuplicateISBN = errors.New("isbn already in use")

// Book represents a book entity.
type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title" validate:"required"`
	Author        string    `json:"author" validate:"required"`
	PublishedYear int       `json:"published_year" validate:"required"`
	ISBN          *string   `json:"isbn,omitempty" validate:"omitempty,isbn"`
	Description   *string   `json:"description,omitempty"`
	Genre         *string   `json:"genre,omitempty"`
	Price         *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock         int       `json:"stock" validate:"gte=0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WithRating is a book enriched with the mean of its review ratings,
// rounded to one decimal. AverageRating is nil when the book has no
// reviews.
type WithRating struct {
	Book
	AverageRating *float64 `json:"average_rating"`
}

// Input carries a partial set of book fields for create and update.
// A nil field means "leave the current value untouched".
type Input struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	PublishedYear *int     `json:"published_year"`
	ISBN          *string  `json:"isbn"`
	Description   *string  `json:"description"`
	Genre         *string  `json:"genre"`
	Price         *float64 `json:"price"`
	Stock         *int     `json:"stock"`
}

func (b *Book) apply(in Input) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.PublishedYear != nil {
		b.PublishedYear = *in.PublishedYear
	}
	if in.ISBN != nil {
		b.ISBN = in.ISBN
	}
	if in.Description != nil {
		b.Description = in.Description
	}
	if in.Genre != nil {
		b.Genre = in.Genre
	}
	if in.Price != nil {
		b.Price = in.Price
	}
	if in.Stock != nil {
		b.Stock = *in.Stock
	}
}
