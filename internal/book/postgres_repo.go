package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectCols = `id, title, author, published_year, isbn, description, genre, price::float8, stock, created_at, updated_at`

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

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1 LIMIT 1`, selectCols)

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.ISBN, &b.Description,
		&b.Genre, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

// ListWithAverageRating joins books to their reviews and computes the
// mean rating per book. The left join keeps books with zero reviews in
// the result, with a NULL average.
func (r *PostgresRepo) ListWithAverageRating(ctx context.Context, page, limit int) ([]WithRating, error) {
	query := avgRatingSQL + ` LIMIT $1 OFFSET $2`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithRating(rows)
}

func (r *PostgresRepo) AllWithAverageRating(ctx context.Context) ([]WithRating, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, avgRatingSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithRating(rows)
}

var avgRatingSQL = fmt.Sprintf(`
	SELECT %s, ROUND(AVG(r.rating)::numeric, 1)::float8 AS average_rating
	FROM books b
	LEFT JOIN reviews r ON r.book_id = b.id
	GROUP BY b.id
	ORDER BY b.id`,
	prefixCols("b"))

func prefixCols(alias string) string {
	cols := strings.Split(selectCols, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func collectWithRating(rows pgx.Rows) ([]WithRating, error) {
	var out []WithRating
	for rows.Next() {
		var b WithRating
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.ISBN, &b.Description,
			&b.Genre, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt, &b.AverageRating,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountTotal(ctx context.Context) (int, error) {
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostgresRepo) FindByTitle(ctx context.Context, title string) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE title ILIKE $1 ORDER BY id`, selectCols)
	return r.queryBooks(ctx, query, "%"+title+"%")
}

func (r *PostgresRepo) FindByAuthor(ctx context.Context, author string) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE author ILIKE $1 ORDER BY id`, selectCols)
	return r.queryBooks(ctx, query, "%"+author+"%")
}

func (r *PostgresRepo) FindByGenre(ctx context.Context, genre string) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE genre = $1 ORDER BY id`, selectCols)
	return r.queryBooks(ctx, query, genre)
}

func (r *PostgresRepo) FindByYearRange(ctx context.Context, start, end int) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE published_year BETWEEN $1 AND $2 ORDER BY id`, selectCols)
	return r.queryBooks(ctx, query, start, end)
}

func (r *PostgresRepo) FindByPriceRange(ctx context.Context, min, max *float64) ([]Book, error) {
	clauses := []string{"price IS NOT NULL"}
	args := []any{}
	argn := 1

	if min != nil {
		clauses = append(clauses, fmt.Sprintf("price >= $%d", argn))
		args = append(args, *min)
		argn++
	}
	if max != nil {
		clauses = append(clauses, fmt.Sprintf("price <= $%d", argn))
		args = append(args, *max)
		argn++
	}

	query := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY id`, selectCols, strings.Join(clauses, " AND "))
	return r.queryBooks(ctx, query, args...)
}

func (r *PostgresRepo) FindInStock(ctx context.Context) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE stock > 0 ORDER BY id`, selectCols)
	return r.queryBooks(ctx, query)
}

func (r *PostgresRepo) AvailableGenres(ctx context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT genre FROM books
		WHERE genre IS NOT NULL AND genre <> ''
		ORDER BY genre`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *PostgresRepo) FindRecent(ctx context.Context, limit int) ([]Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books ORDER BY created_at DESC LIMIT $1`, selectCols)
	return r.queryBooks(ctx, query, limit)
}

func (r *PostgresRepo) Save(ctx context.Context, b *Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var err error
	if b.ID == 0 {
		const insertSQL = `
			INSERT INTO books (title, author, published_year, isbn, description, genre, price, stock, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			RETURNING id, created_at, updated_at`
		err = r.db.QueryRow(timeoutCtx, insertSQL,
			b.Title, b.Author, b.PublishedYear, b.ISBN, b.Description, b.Genre, b.Price, b.Stock,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	} else {
		const updateSQL = `
			UPDATE books
			SET title = $1, author = $2, published_year = $3, isbn = $4, description = $5,
			    genre = $6, price = $7, stock = $8, updated_at = now()
			WHERE id = $9
			RETURNING updated_at`
		err = r.db.QueryRow(timeoutCtx, updateSQL,
			b.Title, b.Author, b.PublishedYear, b.ISBN, b.Description, b.Genre, b.Price, b.Stock, b.ID,
		).Scan(&b.UpdatedAt)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateISBN
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("save book: %w", err)
	}
	return nil
}

// Delete removes the book. Its reviews go with it through the cascading
// foreign key.
func (r *PostgresRepo) Delete(ctx context.Context, b *Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, b.ID)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) queryBooks(ctx context.Context, query string, args ...any) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.ISBN, &b.Description,
			&b.Genre, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
