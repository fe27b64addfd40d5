package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/20bec4199/blissora/internal/domain"
)

const (
	productKeyPrefix = "products:"
	defaultTTL       = 5 * time.Minute
)

// ProductListPage is the cached shape of one product list response.
type ProductListPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

// ProductCache caches product list pages in Redis. Entries expire after the
// TTL; any product mutation invalidates every page at once.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a Redis-backed product list cache.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ProductCache{
		client: client,
		ttl:    ttl,
	}
}

// ListKey builds a cache key from the normalized query parameters, so the
// same filter combination always maps to the same key regardless of the
// order the query string carried them in.
func ListKey(filter domain.ProductFilter, page, perPage int) string {
	parts := []string{
		"category=" + filter.CategoryID,
		"seller=" + filter.SellerID,
		"status=" + filter.Status,
		"search=" + strings.ToLower(strings.TrimSpace(filter.Search)),
		fmt.Sprintf("min=%d", filter.MinPrice),
		fmt.Sprintf("max=%d", filter.MaxPrice),
		"sort=" + filter.SortBy,
		fmt.Sprintf("page=%d", page),
		fmt.Sprintf("per_page=%d", perPage),
	}
	if filter.Featured != nil {
		parts = append(parts, fmt.Sprintf("featured=%t", *filter.Featured))
	}
	sort.Strings(parts)
	return productKeyPrefix + "list:" + strings.Join(parts, "&")
}

// GetList returns the cached page for the key, or nil on a miss.
func (c *ProductCache) GetList(ctx context.Context, key string) (*ProductListPage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get product list: %w", err)
	}

	var page ProductListPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("unmarshal product list: %w", err)
	}

	return &page, nil
}

// SetList stores a page under the key with the configured TTL.
func (c *ProductCache) SetList(ctx context.Context, key string, page *ProductListPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal product list: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product list: %w", err)
	}

	return nil
}

// Invalidate drops every cached product page. Called on any product
// mutation; a coarse flush is cheaper than tracking which pages a product
// appears on.
func (c *ProductCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, productKeyPrefix+"*", 100).Iterator()

	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan product keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del product keys: %w", err)
	}

	return nil
}
