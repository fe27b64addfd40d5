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

const productColumns = `id, seller_id, category_id, name, slug, description, price, compare_price, images, sku, quantity, track_quantity, allow_backorder, attributes, tags, status, is_featured, rating_average, rating_count, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, seller_id, category_id, name, slug, description, price, compare_price, images, sku, quantity, track_quantity, allow_backorder, attributes, tags, status, is_featured, rating_average, rating_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.SellerID,
		p.CategoryID,
		p.Name,
		p.Slug,
		p.Description,
		p.Price,
		p.ComparePrice,
		p.Images,
		p.Inventory.SKU,
		p.Inventory.Quantity,
		p.Inventory.TrackQuantity,
		p.Inventory.AllowBackorder,
		p.Attributes,
		p.Tags,
		p.Status,
		p.IsFeatured,
		p.Rating.Average,
		p.Rating.Count,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProductRow(r.db.QueryRow(ctx, query, id))
}

// GetBySlug retrieves a product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	return scanProductRow(r.db.QueryRow(ctx, query, slug))
}

// List returns products matching the filter, paginated, with the total count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter, p pagination.Params) ([]domain.Product, int, error) {
	conditions := []string{}
	args := []any{}

	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.CategoryID != "" {
		add("category_id = $%d", filter.CategoryID)
	}
	if filter.SellerID != "" {
		add("seller_id = $%d", filter.SellerID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if filter.MinPrice > 0 {
		add("price >= $%d", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		add("price <= $%d", filter.MaxPrice)
	}
	if filter.Featured != nil {
		add("is_featured = $%d", *filter.Featured)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, orderClause(filter.SortBy), len(args)+1, len(args)+2)
	args = append(args, p.PerPage, p.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		prod, err := scanProductRow(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *prod)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// orderClause maps a sort key to a SQL ORDER BY expression. Unknown keys
// fall back to newest first.
func orderClause(sortBy string) string {
	switch sortBy {
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "rating":
		return "rating_average DESC, rating_count DESC"
	default:
		return "created_at DESC"
	}
}

// Related returns up to limit active products in the same category,
// excluding the product itself.
func (r *ProductRepository) Related(ctx context.Context, productID string, limit int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_id = (SELECT category_id FROM products WHERE id = $1)
		  AND id != $1
		  AND status = $2
		ORDER BY rating_average DESC, created_at DESC
		LIMIT $3`

	return r.queryProducts(ctx, query, productID, domain.ProductStatusActive, limit)
}

// TopRated returns up to limit active products with the highest rating.
func (r *ProductRepository) TopRated(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE status = $1 AND rating_count > 0
		ORDER BY rating_average DESC, rating_count DESC
		LIMIT $2`

	return r.queryProducts(ctx, query, domain.ProductStatusActive, limit)
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET category_id = $1, name = $2, slug = $3, description = $4, price = $5,
		    compare_price = $6, images = $7, sku = $8, quantity = $9, track_quantity = $10,
		    allow_backorder = $11, attributes = $12, tags = $13, status = $14,
		    is_featured = $15, updated_at = $16
		WHERE id = $17`

	ct, err := r.db.Exec(ctx, query,
		p.CategoryID,
		p.Name,
		p.Slug,
		p.Description,
		p.Price,
		p.ComparePrice,
		p.Images,
		p.Inventory.SKU,
		p.Inventory.Quantity,
		p.Inventory.TrackQuantity,
		p.Inventory.AllowBackorder,
		p.Attributes,
		p.Tags,
		p.Status,
		p.IsFeatured,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// UpdateRating overwrites the denormalized rating aggregate.
func (r *ProductRepository) UpdateRating(ctx context.Context, productID string, rating domain.Rating) error {
	query := `UPDATE products SET rating_average = $1, rating_count = $2, updated_at = $3 WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, rating.Average, rating.Count, time.Now().UTC(), productID)
	if err != nil {
		return fmt.Errorf("update product rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

func scanProductRow(row pgx.Row) (*domain.Product, error) {
	var p domain.Product

	err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.CategoryID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.ComparePrice,
		&p.Images,
		&p.Inventory.SKU,
		&p.Inventory.Quantity,
		&p.Inventory.TrackQuantity,
		&p.Inventory.AllowBackorder,
		&p.Attributes,
		&p.Tags,
		&p.Status,
		&p.IsFeatured,
		&p.Rating.Average,
		&p.Rating.Count,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}
