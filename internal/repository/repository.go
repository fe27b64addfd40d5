package repository

import (
	"context"
	"time"

	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/pkg/pagination"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByGoogleID retrieves a user by their linked Google account ID.
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// UpdateSession overwrites the user's stored session. Passing nil for
	// both values clears the session.
	UpdateSession(ctx context.Context, userID string, tokenHash *string, expiresAt *time.Time) error

	// UpdateSellerStatus changes the seller status of a user.
	UpdateSellerStatus(ctx context.Context, userID, status string) error

	// List returns users filtered by role (empty role means all), paginated.
	List(ctx context.Context, role string, p pagination.Params) ([]domain.User, int, error)

	// Counts returns the dashboard user aggregates: total users, total
	// sellers, and sellers awaiting approval.
	Counts(ctx context.Context) (users, sellers, pendingSellers int, err error)

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// Create inserts a new category into the store.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Category, error)

	// GetBySlug retrieves a category by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)

	// List returns categories ordered by sort order. When activeOnly is
	// true, inactive categories are excluded.
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)

	// Update modifies an existing category in the store.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySlug retrieves a product by its slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List returns products matching the filter, paginated, with the total count.
	List(ctx context.Context, filter domain.ProductFilter, p pagination.Params) ([]domain.Product, int, error)

	// Related returns up to limit active products sharing the given
	// product's category, excluding the product itself.
	Related(ctx context.Context, productID string, limit int) ([]domain.Product, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// UpdateRating overwrites the denormalized rating aggregate.
	UpdateRating(ctx context.Context, productID string, rating domain.Rating) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// TopRated returns up to limit active products with the highest rating.
	TopRated(ctx context.Context, limit int) ([]domain.Product, error)
}

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get returns the user's cart, creating an empty one if none exists.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save upserts the cart's items and coupon in one transaction.
	Save(ctx context.Context, cart *domain.Cart) error

	// Clear drops the cart's items and coupon.
	Clear(ctx context.Context, userID string) error
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create atomically places an order: checks and decrements stock for
	// every tracked line item, inserts the order with its items and the
	// payment record, and clears the user's cart. Any failure rolls the
	// whole transaction back.
	Create(ctx context.Context, order *domain.Order, payment *domain.Payment) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter, newest first, paginated.
	// A seller filter restricts line items to that seller's products.
	List(ctx context.Context, filter domain.OrderFilter, p pagination.Params) ([]domain.Order, int, error)

	// UpdateStatus transitions the order's status, stamping delivered_at
	// when the new status is delivered.
	UpdateStatus(ctx context.Context, id, status string) error

	// HasDeliveredProduct reports whether the user has a delivered order
	// containing the given product.
	HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error)

	// Recent returns the most recent orders across all users.
	Recent(ctx context.Context, limit int) ([]domain.Order, error)

	// Stats returns the admin dashboard order aggregates: total order
	// count, delivered revenue, and the delivered order count.
	Stats(ctx context.Context) (total int, deliveredRevenue int64, deliveredCount int, err error)

	// DailySales aggregates non-cancelled orders per day over [from, to].
	DailySales(ctx context.Context, from, to time.Time) ([]domain.SalesPoint, error)
}

// PaymentRepository defines the interface for payment persistence operations.
type PaymentRepository interface {
	// GetByOrderID retrieves the payment record for an order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)

	// UpdateStatus changes a payment's status.
	UpdateStatus(ctx context.Context, id, status string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// GetByProductAndUser retrieves the user's review of a product, if any.
	GetByProductAndUser(ctx context.Context, productID, userID string) (*domain.Review, error)

	// ListByProduct returns a product's reviews filtered by status and
	// optionally by star rating (0 means any), newest first, paginated.
	ListByProduct(ctx context.Context, productID, status string, rating int, p pagination.Params) ([]domain.Review, int, error)

	// ListByStatus returns reviews in the given status across all
	// products, oldest first, for the moderation queue.
	ListByStatus(ctx context.Context, status string, p pagination.Params) ([]domain.Review, int, error)

	// UpdateStatus changes a review's moderation status.
	UpdateStatus(ctx context.Context, id, status string) error

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// MarkHelpful records a helpful vote, one per user per review.
	// Returns the updated count.
	MarkHelpful(ctx context.Context, reviewID, userID string) (int, error)

	// ApprovedRatings returns the star values of all approved reviews for
	// a product, for recomputing the rating aggregate.
	ApprovedRatings(ctx context.Context, productID string) ([]int, error)
}
