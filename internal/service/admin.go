package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
)

const (
	dashboardRecentOrders = 5
	dashboardTopProducts  = 5
	salesReportMaxDays    = 365
)

// AdminService implements the admin dashboard and user management.
type AdminService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	logger      *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// Dashboard assembles the admin dashboard aggregates.
func (s *AdminService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	users, sellers, pendingSellers, err := s.userRepo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	totalOrders, deliveredRevenue, deliveredCount, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	_, activeProducts, err := s.productRepo.List(ctx,
		domain.ProductFilter{Status: domain.ProductStatusActive},
		pagination.Params{Page: 1, PerPage: 1},
	)
	if err != nil {
		return nil, fmt.Errorf("count active products: %w", err)
	}

	recent, err := s.orderRepo.Recent(ctx, dashboardRecentOrders)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}

	topRated, err := s.productRepo.TopRated(ctx, dashboardTopProducts)
	if err != nil {
		return nil, fmt.Errorf("top rated products: %w", err)
	}

	stats := &domain.DashboardStats{
		TotalUsers:       users,
		TotalSellers:     sellers,
		PendingSellers:   pendingSellers,
		ActiveProducts:   activeProducts,
		TotalOrders:      totalOrders,
		DeliveredRevenue: deliveredRevenue,
		RecentOrders:     recent,
		TopRatedProducts: topRated,
	}
	if deliveredCount > 0 {
		stats.AverageOrderValue = deliveredRevenue / int64(deliveredCount)
	}

	return stats, nil
}

// SalesReport aggregates daily sales over [from, to].
func (s *AdminService) SalesReport(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error) {
	if to.Before(from) {
		return nil, apperrors.InvalidInput("report end must not precede start")
	}
	if to.Sub(from) > salesReportMaxDays*24*time.Hour {
		return nil, apperrors.InvalidInput("report range cannot exceed one year")
	}

	return s.orderRepo.DailySales(ctx, from, to)
}

// ListUsers returns users filtered by role, paginated.
func (s *AdminService) ListUsers(ctx context.Context, role string, p pagination.Params) ([]domain.User, int, error) {
	if role != "" && !domain.IsValidRole(role) {
		return nil, 0, apperrors.InvalidInput("invalid role")
	}
	return s.userRepo.List(ctx, role, p)
}

// ApproveSeller moves a pending seller to approved.
func (s *AdminService) ApproveSeller(ctx context.Context, sellerID string) error {
	return s.setSellerStatus(ctx, sellerID, domain.SellerStatusApproved)
}

// SuspendSeller suspends a seller. Their products stay in the catalog but
// the seller cannot manage them until reinstated.
func (s *AdminService) SuspendSeller(ctx context.Context, sellerID string) error {
	return s.setSellerStatus(ctx, sellerID, domain.SellerStatusSuspended)
}

func (s *AdminService) setSellerStatus(ctx context.Context, sellerID, status string) error {
	if err := s.userRepo.UpdateSellerStatus(ctx, sellerID, status); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "seller status updated",
		slog.String("seller_id", sellerID),
		slog.String("status", status),
	)

	return nil
}

// DeleteUser removes a user account. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return apperrors.InvalidInput("cannot delete your own account")
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", userID),
	)

	return nil
}
