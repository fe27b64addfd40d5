// Command seed populates a development database with an admin account,
// a demo seller, categories and a handful of products. It is idempotent:
// rows that already exist (by email or slug) are left alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/20bec4199/blissora/internal/config"
	"github.com/20bec4199/blissora/internal/domain"
	"github.com/20bec4199/blissora/internal/repository/postgres"
	"github.com/20bec4199/blissora/migrations"
	"github.com/20bec4199/blissora/pkg/database"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	"github.com/20bec4199/blissora/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("blissora-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := seed(ctx, pool, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func seed(ctx context.Context, pool database.DBTX, log *slog.Logger) error {
	users := postgres.NewUserRepository(pool)
	categories := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)

	admin, err := ensureUser(ctx, users, "Admin", "admin@blissora.dev", "admin12345", domain.RoleAdmin, "")
	if err != nil {
		return err
	}
	log.Info("admin user ready", slog.String("email", admin.Email))

	seller, err := ensureUser(ctx, users, "Demo Seller", "seller@blissora.dev", "seller12345", domain.RoleSeller, domain.SellerStatusApproved)
	if err != nil {
		return err
	}
	log.Info("demo seller ready", slog.String("email", seller.Email))

	catIDs := map[string]string{}
	for _, c := range []struct {
		name, slug, description string
	}{
		{"Electronics", "electronics", "Phones, computers and accessories"},
		{"Home & Kitchen", "home-kitchen", "Everything for the home"},
		{"Books", "books", "Print and audio books"},
	} {
		cat, err := ensureCategory(ctx, categories, c.name, c.slug, c.description)
		if err != nil {
			return err
		}
		catIDs[c.slug] = cat.ID
	}

	for _, p := range []struct {
		name, slug, category string
		price                int64
		quantity             int
	}{
		{"Wireless Headphones", "wireless-headphones", "electronics", 12900, 40},
		{"Mechanical Keyboard", "mechanical-keyboard", "electronics", 18900, 25},
		{"Cast Iron Skillet", "cast-iron-skillet", "home-kitchen", 4900, 60},
		{"French Press", "french-press", "home-kitchen", 3500, 80},
		{"The Go Programming Language", "the-go-programming-language", "books", 3900, 120},
	} {
		if err := ensureProduct(ctx, products, seller.ID, catIDs[p.category], p.name, p.slug, p.price, p.quantity); err != nil {
			return err
		}
	}

	return nil
}

func ensureUser(ctx context.Context, repo *postgres.UserRepository, name, email, password, role, sellerStatus string) (*domain.User, error) {
	existing, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("look up user %s: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		SellerStatus: sellerStatus,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return user, nil
}

func ensureCategory(ctx context.Context, repo *postgres.CategoryRepository, name, slug, description string) (*domain.Category, error) {
	existing, err := repo.GetBySlug(ctx, slug)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("look up category %s: %w", slug, err)
	}

	now := time.Now().UTC()
	category := &domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category %s: %w", slug, err)
	}
	return category, nil
}

func ensureProduct(ctx context.Context, repo *postgres.ProductRepository, sellerID, categoryID, name, slug string, price int64, quantity int) error {
	if _, err := repo.GetBySlug(ctx, slug); err == nil {
		return nil
	} else if !isNotFound(err) {
		return fmt.Errorf("look up product %s: %w", slug, err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:         uuid.NewString(),
		SellerID:   sellerID,
		CategoryID: categoryID,
		Name:       name,
		Slug:       slug,
		Price:      price,
		Images:     []string{},
		Inventory: domain.Inventory{
			Quantity:      quantity,
			TrackQuantity: true,
		},
		Status:    domain.ProductStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, product); err != nil {
		return fmt.Errorf("create product %s: %w", slug, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
