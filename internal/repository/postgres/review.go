package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/pkg/database"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
)

const reviewColumns = `id, product_id, user_id, user_name, rating, title, comment, is_verified_purchase, status, helpful_count, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review. The unique (product_id, user_id) constraint
// enforces one review per product per user.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, user_name, rating, title, comment, is_verified_purchase, status, helpful_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		rv.ID,
		rv.ProductID,
		rv.UserID,
		rv.UserName,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.IsVerifiedPurchase,
		rv.Status,
		rv.HelpfulCount,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "product", rv.ProductID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return scanReviewRow(r.db.QueryRow(ctx, query, id))
}

// GetByProductAndUser retrieves the user's review of a product, if any.
func (r *ReviewRepository) GetByProductAndUser(ctx context.Context, productID, userID string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE product_id = $1 AND user_id = $2`
	return scanReviewRow(r.db.QueryRow(ctx, query, productID, userID))
}

// ListByProduct returns a product's reviews filtered by status and optional
// star rating, newest first, paginated.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID, status string, rating int, p pagination.Params) ([]domain.Review, int, error) {
	conditions := []string{"product_id = $1"}
	args := []any{productID}

	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if rating > 0 {
		args = append(args, rating)
		conditions = append(conditions, fmt.Sprintf("rating = $%d", len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM reviews%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reviewColumns, where, len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset)

	return r.queryReviews(ctx, query, total, args...)
}

// ListByStatus returns reviews in the given status across all products,
// oldest first, for the moderation queue.
func (r *ReviewRepository) ListByStatus(ctx context.Context, status string, p pagination.Params) ([]domain.Review, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`

	return r.queryReviews(ctx, query, total, status, p.PerPage, p.Offset)
}

// UpdateStatus changes a review's moderation status.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE reviews SET status = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// Delete removes a review from the database by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// MarkHelpful records a helpful vote, one per user per review, and returns
// the updated count. Voting twice is a no-op.
func (r *ReviewRepository) MarkHelpful(ctx context.Context, reviewID, userID string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		INSERT INTO review_helpful_votes (review_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (review_id, user_id) DO NOTHING`,
		reviewID, userID, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert helpful vote: %w", err)
	}

	var count int
	if ct.RowsAffected() > 0 {
		err = tx.QueryRow(ctx, `
			UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = $1
			RETURNING helpful_count`,
			reviewID,
		).Scan(&count)
	} else {
		err = tx.QueryRow(ctx, `SELECT helpful_count FROM reviews WHERE id = $1`, reviewID).Scan(&count)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("review", reviewID)
		}
		return 0, fmt.Errorf("update helpful count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return count, nil
}

// ApprovedRatings returns the star values of all approved reviews for a
// product, for recomputing the rating aggregate.
func (r *ReviewRepository) ApprovedRatings(ctx context.Context, productID string) ([]int, error) {
	query := `SELECT rating FROM reviews WHERE product_id = $1 AND status = $2`

	rows, err := r.db.Query(ctx, query, productID, domain.ReviewStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved ratings: %w", err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}

	return ratings, nil
}

func (r *ReviewRepository) queryReviews(ctx context.Context, query string, total int, args ...any) ([]domain.Review, int, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReviewRow(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, total, nil
}

func scanReviewRow(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review

	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.UserName,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.IsVerifiedPurchase,
		&rv.Status,
		&rv.HelpfulCount,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rv, nil
}
