package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
)

// ReviewService implements review submission, moderation and aggregation.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	logger      *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// ReviewInput holds the parameters for submitting a review.
type ReviewInput struct {
	ProductID string
	Rating    int
	Title     string
	Comment   string
}

// Create submits a review. One review per user per product; the verified
// purchase flag is derived from delivered orders. New reviews start pending
// and do not affect the product rating until approved.
func (s *ReviewService) Create(ctx context.Context, user *domain.User, input ReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	if _, err := s.productRepo.GetByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	if existing, err := s.reviewRepo.GetByProductAndUser(ctx, input.ProductID, user.ID); err == nil && existing != nil {
		return nil, apperrors.AlreadyExists("review", "product", input.ProductID)
	}

	verified, err := s.orderRepo.HasDeliveredProduct(ctx, user.ID, input.ProductID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to check purchase history",
			slog.String("product_id", input.ProductID),
			slog.String("error", err.Error()),
		)
		verified = false
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:                 uuid.New().String(),
		ProductID:          input.ProductID,
		UserID:             user.ID,
		UserName:           user.Name,
		Rating:             input.Rating,
		Title:              input.Title,
		Comment:            input.Comment,
		IsVerifiedPurchase: verified,
		Status:             domain.ReviewStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", input.ProductID),
	)

	return review, nil
}

// ListByProduct returns a product's approved reviews, optionally filtered
// by star rating, together with the rating summary.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string, rating int, p pagination.Params) ([]domain.Review, int, *domain.RatingSummary, error) {
	reviews, total, err := s.reviewRepo.ListByProduct(ctx, productID, domain.ReviewStatusApproved, rating, p)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("list reviews: %w", err)
	}

	ratings, err := s.reviewRepo.ApprovedRatings(ctx, productID)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("load approved ratings: %w", err)
	}
	summary := domain.SummarizeRatings(ratings)

	return reviews, total, &summary, nil
}

// Moderation returns pending reviews, oldest first.
func (s *ReviewService) Moderation(ctx context.Context, p pagination.Params) ([]domain.Review, int, error) {
	return s.reviewRepo.ListByStatus(ctx, domain.ReviewStatusPending, p)
}

// Approve approves a review and recomputes the product rating.
func (s *ReviewService) Approve(ctx context.Context, reviewID string) (*domain.Review, error) {
	return s.moderate(ctx, reviewID, domain.ReviewStatusApproved)
}

// Reject rejects a review. The rating is recomputed in case an approved
// review is being demoted.
func (s *ReviewService) Reject(ctx context.Context, reviewID string) (*domain.Review, error) {
	return s.moderate(ctx, reviewID, domain.ReviewStatusRejected)
}

func (s *ReviewService) moderate(ctx context.Context, reviewID, status string) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.UpdateStatus(ctx, reviewID, status); err != nil {
		return nil, err
	}
	review.Status = status

	if err := s.recomputeRating(ctx, review.ProductID); err != nil {
		s.logger.ErrorContext(ctx, "failed to recompute product rating",
			slog.String("product_id", review.ProductID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", reviewID),
		slog.String("status", status),
	)

	return review, nil
}

// Delete removes a review. The author or an admin may delete; the product
// rating is recomputed when an approved review disappears.
func (s *ReviewService) Delete(ctx context.Context, reviewID, actorID, actorRole string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if actorRole != domain.RoleAdmin && review.UserID != actorID {
		return apperrors.Forbidden("you do not own this review")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}

	if review.Status == domain.ReviewStatusApproved {
		if err := s.recomputeRating(ctx, review.ProductID); err != nil {
			s.logger.ErrorContext(ctx, "failed to recompute product rating",
				slog.String("product_id", review.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// MarkHelpful records a helpful vote. Repeat votes by the same user are
// no-ops.
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID, userID string) (int, error) {
	return s.reviewRepo.MarkHelpful(ctx, reviewID, userID)
}

func (s *ReviewService) recomputeRating(ctx context.Context, productID string) error {
	ratings, err := s.reviewRepo.ApprovedRatings(ctx, productID)
	if err != nil {
		return fmt.Errorf("load approved ratings: %w", err)
	}

	summary := domain.SummarizeRatings(ratings)
	return s.productRepo.UpdateRating(ctx, productID, domain.Rating{
		Average: summary.Average,
		Count:   summary.Count,
	})
}
