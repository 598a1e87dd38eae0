package review

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a review is not found.
var ErrNotFound = errors.New("review not found")

// Review represents a single review of a book. The book reference is
// immutable after creation.
type Review struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id" validate:"required,gt=0"`
	// No required tag on Rating: the zero value must report the range
	// message, and min=1 already rejects it.
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Comment   string    `json:"comment" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// Input carries the writable review fields. A nil field leaves the
// current value untouched.
type Input struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (rv *Review) apply(in Input) {
	if in.Rating != nil {
		rv.Rating = *in.Rating
	}
	if in.Comment != nil {
		rv.Comment = strings.TrimSpace(*in.Comment)
	}
}
