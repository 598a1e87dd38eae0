package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectCols = `id, book_id, rating, comment, created_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1 LIMIT 1`, selectCols)

	var rv Review
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&rv.ID, &rv.BookID, &rv.Rating, &rv.Comment, &rv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return rv, nil
}

func (r *PostgresRepo) List(ctx context.Context, page, limit int) ([]Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY id LIMIT $1 OFFSET $2`, selectCols)
	return r.queryReviews(ctx, query, limit, (page-1)*limit)
}

func (r *PostgresRepo) CountTotal(ctx context.Context) (int, error) {
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM reviews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresRepo) FindByBook(ctx context.Context, bookID int64) ([]Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE book_id = $1 ORDER BY created_at DESC`, selectCols)
	return r.queryReviews(ctx, query, bookID)
}

func (r *PostgresRepo) FindByRating(ctx context.Context, rating int) ([]Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE rating = $1 ORDER BY id`, selectCols)
	return r.queryReviews(ctx, query, rating)
}

func (r *PostgresRepo) FindByMinimumRating(ctx context.Context, minRating int) ([]Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE rating >= $1 ORDER BY id`, selectCols)
	return r.queryReviews(ctx, query, minRating)
}

func (r *PostgresRepo) FindRecent(ctx context.Context, limit int) ([]Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY created_at DESC LIMIT $1`, selectCols)
	return r.queryReviews(ctx, query, limit)
}

// AverageRatingForBook returns the mean rating for the book, rounded to
// one decimal, or nil when the book has no reviews.
func (r *PostgresRepo) AverageRatingForBook(ctx context.Context, bookID int64) (*float64, error) {
	const query = `SELECT ROUND(AVG(rating)::numeric, 1)::float8 FROM reviews WHERE book_id = $1`

	var avg *float64
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, bookID).Scan(&avg); err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *PostgresRepo) CountForBook(ctx context.Context, bookID int64) (int, error) {
	var count int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM reviews WHERE book_id = $1`, bookID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepo) RatingDistributionForBook(ctx context.Context, bookID int64) (map[int]int, error) {
	const query = `SELECT rating, COUNT(*) FROM reviews WHERE book_id = $1 GROUP BY rating`
	return r.queryDistribution(ctx, query, bookID)
}

func (r *PostgresRepo) GlobalAverageRating(ctx context.Context) (*float64, error) {
	const query = `SELECT ROUND(AVG(rating)::numeric, 1)::float8 FROM reviews`

	var avg *float64
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query).Scan(&avg); err != nil {
		return nil, err
	}
	return avg, nil
}

func (r *PostgresRepo) GlobalRatingDistribution(ctx context.Context) (map[int]int, error) {
	const query = `SELECT rating, COUNT(*) FROM reviews GROUP BY rating`
	return r.queryDistribution(ctx, query)
}

func (r *PostgresRepo) Save(ctx context.Context, rv *Review) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var err error
	if rv.ID == 0 {
		const insertSQL = `
			INSERT INTO reviews (book_id, rating, comment, created_at)
			VALUES ($1, $2, $3, now())
			RETURNING id, created_at`
		err = r.db.QueryRow(timeoutCtx, insertSQL, rv.BookID, rv.Rating, rv.Comment).
			Scan(&rv.ID, &rv.CreatedAt)
	} else {
		const updateSQL = `UPDATE reviews SET rating = $1, comment = $2 WHERE id = $3`
		_, err = r.db.Exec(timeoutCtx, updateSQL, rv.Rating, rv.Comment, rv.ID)
	}

	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, rv *Review) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM reviews WHERE id = $1`, rv.ID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// queryDistribution zero-fills ratings 1..5 so every key is present
// even when no review carries that rating.
func (r *PostgresRepo) queryDistribution(ctx context.Context, query string, args ...any) (map[int]int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		dist[rating] = count
	}
	return dist, rows.Err()
}

func (r *PostgresRepo) queryReviews(ctx context.Context, query string, args ...any) ([]Review, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.BookID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
