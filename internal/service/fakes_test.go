package service

import (
	"context"
	"sync"
	"time"

	"github.com/20bec4199/blissora/internal/auth"
	"github.com/20bec4199/blissora/internal/cache"
	"github.com/20bec4199/blissora/internal/domain"
	apperrors "github.com/20bec4199/blissora/pkg/errors"
	pkgkafka "github.com/20bec4199/blissora/pkg/kafka"
	"github.com/20bec4199/blissora/pkg/pagination"
)

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	updateSessionErr error
	sessionWrites    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateSession(_ context.Context, userID string, hash *string, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateSessionErr != nil {
		return r.updateSessionErr
	}
	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user", userID)
	}
	r.sessionWrites++
	u.RefreshTokenHash = hash
	u.RefreshTokenExpiresAt = expiresAt
	return nil
}

func (r *fakeUserRepo) UpdateSellerStatus(_ context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.Role != domain.RoleSeller {
		return apperrors.NotFound("seller", userID)
	}
	u.SellerStatus = status
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, role string, _ pagination.Params) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Counts(_ context.Context) (int, int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, sellers, pending := 0, 0, 0
	for _, u := range r.users {
		users++
		if u.Role == domain.RoleSeller {
			sellers++
			if u.SellerStatus == domain.SellerStatusPending {
				pending++
			}
		}
	}
	return users, sellers, pending, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.NotFound("user", id)
	}
	delete(r.users, id)
	return nil
}

// stored returns the live record, bypassing the copy the getters make.
func (r *fakeUserRepo) stored(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// fakePublisher collects published Kafka events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*pkgkafka.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []*pkgkafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*pkgkafka.Event(nil), p.events...)
}

// fakeGoogle is a canned GoogleProvider.
type fakeGoogle struct {
	enabled bool
	info    *auth.GoogleUserInfo
	err     error
}

func (g *fakeGoogle) Enabled() bool { return g.enabled }

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state
}

func (g *fakeGoogle) Exchange(_ context.Context, _ string) (*auth.GoogleUserInfo, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.info, nil
}

// fakeCategoryRepo is an in-memory repository.CategoryRepository.
type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]*domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]*domain.Category{}}
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.Slug == c.Slug {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) GetBySlug(_ context.Context, s string) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Slug == s {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("category", s)
}

func (r *fakeCategoryRepo) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Category{}
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID)
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(r.categories, id)
	return nil
}

// fakeProductRepo is an in-memory repository.ProductRepository.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	ratingWrites []domain.Rating
	relatedErr   error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*domain.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Slug == p.Slug {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySlug(_ context.Context, s string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Slug == s {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("product", s)
}

func (r *fakeProductRepo) List(_ context.Context, filter domain.ProductFilter, _ pagination.Params) ([]domain.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.SellerID != "" && p.SellerID != filter.SellerID {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) Related(_ context.Context, productID string, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.relatedErr != nil {
		return nil, r.relatedErr
	}
	subject, ok := r.products[productID]
	if !ok {
		return nil, apperrors.NotFound("product", productID)
	}
	out := []domain.Product{}
	for _, p := range r.products {
		if p.ID == productID || p.CategoryID != subject.CategoryID || p.Status != domain.ProductStatusActive {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateRating(_ context.Context, productID string, rating domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperrors.NotFound("product", productID)
	}
	p.Rating = rating
	r.ratingWrites = append(r.ratingWrites, rating)
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) TopRated(_ context.Context, limit int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Product{}
	for _, p := range r.products {
		if p.Status != domain.ProductStatusActive {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

// fakeCartRepo is an in-memory repository.CartRepository.
type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
	saves int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]*domain.Cart{}}
}

func (r *fakeCartRepo) Get(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		c = &domain.Cart{ID: "cart-" + userID, UserID: userID, Items: []domain.CartItem{}}
		r.carts[userID] = c
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (r *fakeCartRepo) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &cp
	r.saves++
	return nil
}

func (r *fakeCartRepo) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[userID]; ok {
		c.Items = []domain.CartItem{}
		c.Coupon = nil
	}
	return nil
}

// fakeOrderRepo is an in-memory repository.OrderRepository.
type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	payments map[string]*domain.Payment

	createErr         error
	clearedCarts      []string
	deliveredProducts map[string]bool
	deliveredErr      error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:            map[string]*domain.Order{},
		payments:          map[string]*domain.Payment{},
		deliveredProducts: map[string]bool{},
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	oc := *order
	oc.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &oc
	pc := *payment
	r.payments[order.ID] = &pc
	r.clearedCarts = append(r.clearedCarts, order.UserID)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter domain.OrderFilter, _ pagination.Params) ([]domain.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Order{}
	for _, o := range r.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.SellerID != "" {
			sells := false
			for _, item := range o.Items {
				if item.SellerID == filter.SellerID {
					sells = true
					break
				}
			}
			if !sells {
				continue
			}
		}
		cp := *o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		out = append(out, cp)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	o.Status = status
	if status == domain.OrderStatusDelivered {
		now := time.Now().UTC()
		o.DeliveredAt = &now
	}
	return nil
}

func (r *fakeOrderRepo) HasDeliveredProduct(_ context.Context, userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deliveredErr != nil {
		return false, r.deliveredErr
	}
	return r.deliveredProducts[userID+"/"+productID], nil
}

func (r *fakeOrderRepo) Recent(_ context.Context, limit int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Order{}
	for _, o := range r.orders {
		if len(out) == limit {
			break
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Stats(_ context.Context) (int, int64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := len(r.orders)
	var revenue int64
	delivered := 0
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusDelivered {
			revenue += o.Total
			delivered++
		}
	}
	return total, revenue, delivered, nil
}

func (r *fakeOrderRepo) DailySales(_ context.Context, from, to time.Time) ([]domain.SalesPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDay := map[string]*domain.SalesPoint{}
	for _, o := range r.orders {
		if o.Status == domain.OrderStatusCancelled || o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		day := o.CreatedAt.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &domain.SalesPoint{Date: day}
			byDay[day] = point
		}
		point.Orders++
		point.Revenue += o.Total
	}
	out := []domain.SalesPoint{}
	for _, point := range byDay {
		out = append(out, *point)
	}
	return out, nil
}

// fakePaymentRepo is an in-memory repository.PaymentRepository keyed by
// order ID.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[string]*domain.Payment{}}
}

func (r *fakePaymentRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil, apperrors.NotFound("payment", orderID)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return apperrors.NotFound("payment", id)
}

// fakeReviewRepo is an in-memory repository.ReviewRepository.
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]*domain.Review
	votes   map[string]bool
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{
		reviews: map[string]*domain.Review{},
		votes:   map[string]bool{},
	}
}

func (r *fakeReviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ProductID == review.ProductID && existing.UserID == review.UserID {
			return apperrors.AlreadyExists("review", "product", review.ProductID)
		}
	}
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	cp := *rev
	return &cp, nil
}

func (r *fakeReviewRepo) GetByProductAndUser(_ context.Context, productID, userID string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rev := range r.reviews {
		if rev.ProductID == productID && rev.UserID == userID {
			cp := *rev
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeReviewRepo) ListByProduct(_ context.Context, productID, status string, rating int, _ pagination.Params) ([]domain.Review, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Review{}
	for _, rev := range r.reviews {
		if rev.ProductID != productID || rev.Status != status {
			continue
		}
		if rating > 0 && rev.Rating != rating {
			continue
		}
		out = append(out, *rev)
	}
	return out, len(out), nil
}

func (r *fakeReviewRepo) ListByStatus(_ context.Context, status string, _ pagination.Params) ([]domain.Review, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Review{}
	for _, rev := range r.reviews {
		if rev.Status == status {
			out = append(out, *rev)
		}
	}
	return out, len(out), nil
}

func (r *fakeReviewRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[id]
	if !ok {
		return apperrors.NotFound("review", id)
	}
	rev.Status = status
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) MarkHelpful(_ context.Context, reviewID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.reviews[reviewID]
	if !ok {
		return 0, apperrors.NotFound("review", reviewID)
	}
	key := reviewID + "/" + userID
	if !r.votes[key] {
		r.votes[key] = true
		rev.HelpfulCount++
	}
	return rev.HelpfulCount, nil
}

func (r *fakeReviewRepo) ApprovedRatings(_ context.Context, productID string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []int{}
	for _, rev := range r.reviews {
		if rev.ProductID == productID && rev.Status == domain.ReviewStatusApproved {
			out = append(out, rev.Rating)
		}
	}
	return out, nil
}

// fakeProductCache is an in-memory ProductCache.
type fakeProductCache struct {
	mu            sync.Mutex
	pages         map[string]*cache.ProductListPage
	invalidations int
	getErr        error
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{pages: map[string]*cache.ProductListPage{}}
}

func (c *fakeProductCache) GetList(_ context.Context, key string) (*cache.ProductListPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.pages[key], nil
}

func (c *fakeProductCache) SetList(_ context.Context, key string, page *cache.ProductListPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page
	return nil
}

func (c *fakeProductCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = map[string]*cache.ProductListPage{}
	c.invalidations++
	return nil
}

// fakeChargeProvider is a scriptable PaymentProvider.
type fakeChargeProvider struct {
	mu         sync.Mutex
	chargeErr  error
	refundErr  error
	charges    []ChargeRequest
	refunds    []string
	gatewayRef string
}

func (p *fakeChargeProvider) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chargeErr != nil {
		return nil, p.chargeErr
	}
	p.charges = append(p.charges, req)
	ref := p.gatewayRef
	if ref == "" {
		ref = "gw-test-ref"
	}
	return &ChargeResult{GatewayRef: ref}, nil
}

func (p *fakeChargeProvider) Refund(_ context.Context, gatewayRef string, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return p.refundErr
	}
	p.refunds = append(p.refunds, gatewayRef)
	return nil
}
