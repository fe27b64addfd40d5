package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/20bec4199/blissora/internal/cache"
	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/repository"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/pagination"
	"github.com/20bec4199/blissora/pkg/slug"
)

// relatedProductLimit caps the related products attached to a product view.
const relatedProductLimit = 4

// ProductCache is the slice of the Redis cache the product service needs.
type ProductCache interface {
	GetList(ctx context.Context, key string) (*cache.ProductListPage, error)
	SetList(ctx context.Context, key string, page *cache.ProductListPage) error
	Invalidate(ctx context.Context) error
}

// ProductService implements catalog business logic.
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        ProductCache
	logger       *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	productCache ProductCache,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        productCache,
		logger:       logger,
	}
}

// ProductInput holds the parameters for creating or updating a product.
type ProductInput struct {
	CategoryID     string
	Name           string
	Description    string
	Price          int64
	ComparePrice   int64
	Images         []string
	SKU            string
	Quantity       int
	TrackQuantity  bool
	AllowBackorder bool
	Attributes     map[string]string
	Tags           []string
	Status         string
	IsFeatured     bool
}

// Create adds a product owned by the seller. The slug is generated here,
// at write time, never by a persistence hook.
func (s *ProductService) Create(ctx context.Context, sellerID string, input ProductInput) (*domain.Product, error) {
	if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
		return nil, apperrors.InvalidInput("category does not exist")
	}

	status := input.Status
	if status == "" {
		status = domain.ProductStatusActive
	}
	if !domain.IsValidProductStatus(status) {
		return nil, apperrors.InvalidInput("invalid product status")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:           uuid.New().String(),
		SellerID:     sellerID,
		CategoryID:   input.CategoryID,
		Name:         input.Name,
		Slug:         slug.Generate(input.Name),
		Description:  input.Description,
		Price:        input.Price,
		ComparePrice: input.ComparePrice,
		Images:       input.Images,
		Inventory: domain.Inventory{
			SKU:            input.SKU,
			Quantity:       input.Quantity,
			TrackQuantity:  input.TrackQuantity,
			AllowBackorder: input.AllowBackorder,
		},
		Attributes: input.Attributes,
		Tags:       input.Tags,
		Status:     status,
		IsFeatured: input.IsFeatured,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidateCache(ctx)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("seller_id", sellerID),
	)

	return product, nil
}

// Update modifies a product. Only the owning seller (or an admin) may
// update; the slug follows the name.
func (s *ProductService) Update(ctx context.Context, productID, actorID, actorRole string, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeSeller(product, actorID, actorRole); err != nil {
		return nil, err
	}

	if input.CategoryID != "" && input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.GetByID(ctx, input.CategoryID); err != nil {
			return nil, apperrors.InvalidInput("category does not exist")
		}
		product.CategoryID = input.CategoryID
	}
	if input.Status != "" {
		if !domain.IsValidProductStatus(input.Status) {
			return nil, apperrors.InvalidInput("invalid product status")
		}
		product.Status = input.Status
	}

	product.Name = input.Name
	product.Slug = slug.Generate(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.ComparePrice = input.ComparePrice
	if input.Images != nil {
		product.Images = input.Images
	}
	product.Inventory.SKU = input.SKU
	product.Inventory.Quantity = input.Quantity
	product.Inventory.TrackQuantity = input.TrackQuantity
	product.Inventory.AllowBackorder = input.AllowBackorder
	product.Attributes = input.Attributes
	product.Tags = input.Tags
	product.IsFeatured = input.IsFeatured

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx)

	return product, nil
}

// Delete removes a product. Only the owning seller or an admin may delete.
func (s *ProductService) Delete(ctx context.Context, productID, actorID, actorRole string) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.authorizeSeller(product, actorID, actorRole); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidateCache(ctx)

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", productID),
	)

	return nil
}

// Get returns a product with up to four related products from the same
// category.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, []domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	related, err := s.productRepo.Related(ctx, id, relatedProductLimit)
	if err != nil {
		// The product view survives a related lookup failure.
		s.logger.WarnContext(ctx, "failed to load related products",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		related = []domain.Product{}
	}

	return product, related, nil
}

// GetBySlug returns a product by its slug.
func (s *ProductService) GetBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	return s.productRepo.GetBySlug(ctx, productSlug)
}

// List returns the filtered, paginated catalog page. Pages are cached in
// Redis for a few minutes; any product mutation flushes the whole cache.
func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter, p pagination.Params) ([]domain.Product, int, error) {
	key := cache.ListKey(filter, p.Page, p.PerPage)

	if cached, err := s.cache.GetList(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "product cache read failed",
			slog.String("error", err.Error()),
		)
	} else if cached != nil {
		return cached.Products, cached.Total, nil
	}

	products, total, err := s.productRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	if err := s.cache.SetList(ctx, key, &cache.ProductListPage{Products: products, Total: total}); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed",
			slog.String("error", err.Error()),
		)
	}

	return products, total, nil
}

// authorizeSeller permits the owning seller and admins.
func (s *ProductService) authorizeSeller(product *domain.Product, actorID, actorRole string) error {
	if actorRole == domain.RoleAdmin {
		return nil
	}
	if product.SellerID != actorID {
		return apperrors.Forbidden("you do not own this product")
	}
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}

// --- Categories ---

// CategoryService implements category management.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	logger       *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// CategoryInput holds the parameters for creating or updating a category.
type CategoryInput struct {
	Name        string
	Description string
	Image       string
	ParentID    *string
	IsActive    bool
	SortOrder   int
}

// Create adds a category with a generated slug.
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if input.ParentID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *input.ParentID); err != nil {
			return nil, apperrors.InvalidInput("parent category does not exist")
		}
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		Image:       input.Image,
		ParentID:    input.ParentID,
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

// Update modifies a category.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, apperrors.InvalidInput("category cannot be its own parent")
		}
		if _, err := s.categoryRepo.GetByID(ctx, *input.ParentID); err != nil {
			return nil, apperrors.InvalidInput("parent category does not exist")
		}
	}

	category.Name = input.Name
	category.Slug = slug.Generate(input.Name)
	category.Description = input.Description
	category.Image = input.Image
	category.ParentID = input.ParentID
	category.IsActive = input.IsActive
	category.SortOrder = input.SortOrder

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.categoryRepo.Delete(ctx, id)
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

// List returns categories, optionally restricted to active ones.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

// Tree returns the category forest for navigation.
func (s *CategoryService) Tree(ctx context.Context, activeOnly bool) ([]*domain.CategoryNode, error) {
	categories, err := s.categoryRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return domain.BuildCategoryTree(categories), nil
}
