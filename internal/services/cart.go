package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ReasonLoginRequired is the denial reason when no identity is present
const ReasonLoginRequired = "login required"

// Decision is the outcome of an auth-gated operation. A denied operation
// changes nothing; the caller decides where to send the user.
type Decision struct {
	Allowed bool
	Reason  string
}

var allowed = Decision{Allowed: true}

func denied(reason string) Decision {
	return Decision{Reason: reason}
}

// CartManager holds the cart line items and favorite set of one device
type CartManager struct {
	mu        sync.Mutex
	store     *store.JSONStore
	auth      IdentitySource
	logger    *zap.Logger
	metrics   *metrics.AppMetrics
	items     []models.CartItem
	favorites []int64
}

// NewCartManager loads the persisted cart and favorites
func NewCartManager(ctx context.Context, st *store.JSONStore, auth IdentitySource, logger *zap.Logger, m *metrics.AppMetrics) (*CartManager, error) {
	c := &CartManager{
		store:   st,
		auth:    auth,
		logger:  logger,
		metrics: m,
	}

	var items []models.CartItem
	if _, err := st.Load(ctx, store.KeyCart, &items); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	c.items = sanitizeItems(items)

	var favorites []int64
	if _, err := st.Load(ctx, store.KeyFavorites, &favorites); err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	c.favorites = favorites

	return c, nil
}

// sanitizeItems drops lines that break the quantity or uniqueness invariants
func sanitizeItems(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.Quantity < 1 || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}

// AddToCart adds one unit of item. Without an identity the call is denied
// and the cart is left untouched.
func (s *CartManager) AddToCart(ctx context.Context, item models.CartItem) (Decision, error) {
	if _, ok := s.auth.Current(); !ok {
		s.metrics.Add(ctx, s.metrics.AuthDenied, 1, attribute.String("operation", "add_to_cart"))
		return denied(ReasonLoginRequired), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.items)
	if i := indexOf(next, item.ID); i >= 0 {
		next[i].Quantity++
	} else {
		item.Quantity = 1
		next = append(next, item)
	}

	return allowed, s.commitItems(ctx, next)
}

// RemoveFromCart deletes the line for id, if any
func (s *CartManager) RemoveFromCart(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitItems(ctx, removeLine(s.items, id))
}

// UpdateQuantity sets the quantity for id. A quantity of zero or less
// removes the line.
func (s *CartManager) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.commitItems(ctx, removeLine(s.items, id))
	}

	next := slices.Clone(s.items)
	if i := indexOf(next, id); i >= 0 {
		next[i].Quantity = quantity
	}
	return s.commitItems(ctx, next)
}

// ClearCart empties the cart
func (s *CartManager) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitItems(ctx, []models.CartItem{})
}

// RemoveOrdered takes the quantities in ordered out of the cart. Units added
// after ordered was snapshotted stay in the cart.
func (s *CartManager) RemoveOrdered(ctx context.Context, ordered []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[int64]int, len(ordered))
	for _, item := range ordered {
		taken[item.ID] += item.Quantity
	}

	next := make([]models.CartItem, 0, len(s.items))
	for _, item := range s.items {
		item.Quantity -= taken[item.ID]
		if item.Quantity > 0 {
			next = append(next, item)
		}
	}
	return s.commitItems(ctx, next)
}

// Items returns a copy of the cart lines
func (s *CartManager) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// TotalPrice is the sum of price * quantity over all lines
func (s *CartManager) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

// TotalItems is the sum of quantities over all lines
func (s *CartManager) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.items)
}

// Snapshot returns items and totals under one lock
func (s *CartManager) Snapshot() models.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CartResponse{
		Items:      slices.Clone(s.items),
		TotalPrice: totalPrice(s.items),
		TotalItems: totalItems(s.items),
	}
}

// ToggleFavorite flips membership of id in the favorite set. Gated like
// AddToCart.
func (s *CartManager) ToggleFavorite(ctx context.Context, id int64) (Decision, error) {
	if _, ok := s.auth.Current(); !ok {
		s.metrics.Add(ctx, s.metrics.AuthDenied, 1, attribute.String("operation", "toggle_favorite"))
		return denied(ReasonLoginRequired), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next []int64
	action := "added"
	if i := slices.Index(s.favorites, id); i >= 0 {
		next = slices.Delete(slices.Clone(s.favorites), i, i+1)
		action = "removed"
	} else {
		next = append(slices.Clone(s.favorites), id)
	}

	if next == nil {
		next = []int64{}
	}
	if err := s.store.Save(ctx, store.KeyFavorites, next); err != nil {
		return allowed, err
	}
	s.favorites = next
	s.metrics.Add(ctx, s.metrics.FavoritesToggled, 1, attribute.String("action", action))
	return allowed, nil
}

// IsFavorite reports whether id is in the favorite set
func (s *CartManager) IsFavorite(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.favorites, id)
}

// Favorites returns a copy of the favorite ids in insertion order
func (s *CartManager) Favorites() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.favorites)
	if out == nil {
		out = []int64{}
	}
	return out
}

// Flush rewrites the in-memory cart and favorites to the store
func (s *CartManager) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, store.KeyCart, s.items); err != nil {
		return err
	}
	favorites := s.favorites
	if favorites == nil {
		favorites = []int64{}
	}
	return s.store.Save(ctx, store.KeyFavorites, favorites)
}

// commitItems persists next and only then makes it the current cart.
// Callers hold s.mu.
func (s *CartManager) commitItems(ctx context.Context, next []models.CartItem) error {
	if err := s.store.Save(ctx, store.KeyCart, next); err != nil {
		s.logger.Error("Failed to persist cart", zap.Error(err))
		return err
	}
	s.items = next

	s.metrics.CartItemsCount.Record(ctx, int64(totalItems(next)), metric.WithAttributes(s.metrics.WithServiceName(nil)...))
	return nil
}

func indexOf(items []models.CartItem, id int64) int {
	return slices.IndexFunc(items, func(item models.CartItem) bool { return item.ID == id })
}

func removeLine(items []models.CartItem, id int64) []models.CartItem {
	next := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	return next
}

func totalPrice(items []models.CartItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum.InexactFloat64()
}

func totalItems(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
