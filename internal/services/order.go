package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrOrderNotFound is returned when no visible order has the requested id
var ErrOrderNotFound = errors.New("order not found")

// isoMillis matches the ISO-8601 form with millisecond precision
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// OrderManager holds the orders of the current identity on one device.
//
// The store keeps a single order list for the whole device. Every write
// reads that list, merges this manager's orders into it by id, and writes it
// back. Nothing serializes writers on different devices sharing a backend;
// the last write wins.
type OrderManager struct {
	mu      sync.Mutex
	store   *store.JSONStore
	auth    IdentitySource
	logger  *zap.Logger
	metrics *metrics.AppMetrics
	now     func() time.Time
	orders  []models.Order
}

// NewOrderManager loads the orders visible to the current identity
func NewOrderManager(ctx context.Context, st *store.JSONStore, auth IdentitySource, logger *zap.Logger, m *metrics.AppMetrics) (*OrderManager, error) {
	s := &OrderManager{
		store:   st,
		auth:    auth,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the device order list and keeps the orders owned by the
// current identity. Call it whenever the identity changes.
func (s *OrderManager) Reload(ctx context.Context) error {
	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}

	owner := s.owner()
	visible := make([]models.Order, 0, len(all))
	for _, order := range all {
		if order.UserID == owner {
			visible = append(visible, order)
		}
	}

	s.mu.Lock()
	s.orders = visible
	s.mu.Unlock()
	return nil
}

// AddOrder records a new pending order for the current identity and
// returns it
func (s *OrderManager) AddOrder(ctx context.Context, draft models.OrderDraft) (models.Order, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to generate order id: %w", err)
	}
	now := s.now()

	order := models.Order{
		ID:            "order-" + id.String(),
		OrderNumber:   orderNumber(now),
		Items:         slices.Clone(draft.Items),
		Total:         draft.Total,
		Subtotal:      draft.Subtotal,
		Shipping:      draft.Shipping,
		PaymentMethod: draft.PaymentMethod,
		ShippingInfo:  draft.ShippingInfo,
		Status:        models.OrderStatusPending,
		OrderDate:     now.UTC().Format(isoMillis),
		UserID:        s.owner(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll(ctx)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.store.Save(ctx, store.KeyOrders, append([]models.Order{order}, all...)); err != nil {
		return models.Order{}, err
	}
	s.orders = append([]models.Order{order}, s.orders...)

	s.metrics.Add(ctx, s.metrics.OrdersCreated, 1,
		attribute.String("payment_method", string(order.PaymentMethod)),
		attribute.String("order_status", string(order.Status)))
	s.metrics.RevenueTotal.Add(ctx, order.Total, metric.WithAttributes(s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("payment_method", string(order.PaymentMethod)),
	})...))

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total),
		zap.Int("items", len(order.Items)))

	return order, nil
}

// CancelOrder moves a non-terminal order of the current identity to
// cancelled. It reports whether anything changed.
func (s *OrderManager) CancelOrder(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.orders, func(o models.Order) bool { return o.ID == id })
	if i < 0 || !s.orders[i].Status.CanTransitionTo(models.OrderStatusCancelled) {
		return false, nil
	}

	next := slices.Clone(s.orders)
	previous := next[i].Status
	next[i].Status = models.OrderStatusCancelled

	if err := s.mergeAndSave(ctx, next); err != nil {
		return false, err
	}
	s.orders = next

	s.metrics.Add(ctx, s.metrics.OrdersCancelled, 1, attribute.String("from_status", string(previous)))
	s.logger.Info("Order cancelled", zap.String("order_id", id), zap.String("from_status", string(previous)))
	return true, nil
}

// GetOrderByID looks in the session list first, then in the stored device
// list. Orders owned by another identity are never returned.
func (s *OrderManager) GetOrderByID(ctx context.Context, id string) (models.Order, error) {
	owner := s.owner()

	s.mu.Lock()
	for _, order := range s.orders {
		if order.ID == id && order.UserID == owner {
			s.mu.Unlock()
			return order, nil
		}
	}
	s.mu.Unlock()

	all, err := s.loadAll(ctx)
	if err != nil {
		return models.Order{}, err
	}
	for _, order := range all {
		if order.ID == id && order.UserID == owner {
			return order, nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

// Orders returns the session orders, newest first
func (s *OrderManager) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Flush merges the session orders back into the device list
func (s *OrderManager) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeAndSave(ctx, s.orders)
}

func (s *OrderManager) owner() string {
	if identity, ok := s.auth.Current(); ok {
		return identity.Email
	}
	return ""
}

func (s *OrderManager) loadAll(ctx context.Context) ([]models.Order, error) {
	var all []models.Order
	if _, err := s.store.Load(ctx, store.KeyOrders, &all); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return all, nil
}

// mergeAndSave replaces stored orders by id with session ones; session
// orders missing from the store are appended. Callers hold s.mu.
func (s *OrderManager) mergeAndSave(ctx context.Context, session []models.Order) error {
	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]models.Order, len(session))
	for _, order := range session {
		byID[order.ID] = order
	}

	merged := make([]models.Order, 0, len(all)+len(session))
	for _, order := range all {
		if updated, ok := byID[order.ID]; ok {
			order = updated
			delete(byID, order.ID)
		}
		merged = append(merged, order)
	}
	for _, order := range session {
		if _, missing := byID[order.ID]; missing {
			merged = append(merged, order)
		}
	}

	return s.store.Save(ctx, store.KeyOrders, merged)
}

// orderNumber is "SOFT-" plus the last eight digits of the Unix millisecond
// clock. Readable, not globally unique.
func orderNumber(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return "SOFT-" + ms
}
