package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checking out with nothing in the cart
var ErrEmptyCart = errors.New("Your cart is empty!")

// Shipping rules: orders strictly above the threshold ship free.
const (
	FreeShippingThreshold = 2000
	ShippingFee           = 100
)

var (
	contactEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigit     = regexp.MustCompile(`\D`)
	tenDigits    = regexp.MustCompile(`^[0-9]{10}$`)
	sixDigits    = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidationError maps form fields to messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid checkout form: %s", strings.Join(names, ", "))
}

// ShippingFor returns the shipping charge for a subtotal
func ShippingFor(subtotal float64) float64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return ShippingFee
}

// CheckoutService turns a session cart into an order
type CheckoutService struct {
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(logger *zap.Logger, m *metrics.AppMetrics) *CheckoutService {
	return &CheckoutService{logger: logger, metrics: m}
}

// Checkout validates the form, snapshots the cart into a pending order and
// removes the ordered lines from the cart
func (s *CheckoutService) Checkout(ctx context.Context, sess *Session, req models.CheckoutRequest) (models.Order, error) {
	if !sess.Auth.IsAuthenticated() {
		return models.Order{}, ErrNotAuthenticated
	}

	cart := sess.Cart.Snapshot()
	if len(cart.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	if err := validateCheckout(req); err != nil {
		return models.Order{}, err
	}

	subtotal := cart.TotalPrice
	shipping := ShippingFor(subtotal)
	total := decimal.NewFromFloat(subtotal).Add(decimal.NewFromFloat(shipping)).InexactFloat64()

	order, err := sess.Orders.AddOrder(ctx, models.OrderDraft{
		Items:         cart.Items,
		Total:         total,
		Subtotal:      subtotal,
		Shipping:      shipping,
		PaymentMethod: req.PaymentMethod,
		ShippingInfo:  req.ShippingInfo,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	if err := sess.Cart.RemoveOrdered(ctx, cart.Items); err != nil {
		// the order exists; a stale cart is the lesser problem
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	return order, nil
}

func validateCheckout(req models.CheckoutRequest) error {
	fields := map[string]string{}
	info := req.ShippingInfo

	required := []struct {
		name, value, message string
	}{
		{"firstName", info.FirstName, "First name is required"},
		{"lastName", info.LastName, "Last name is required"},
		{"address", info.Address, "Address is required"},
		{"city", info.City, "City is required"},
		{"state", info.State, "State is required"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fields[r.name] = r.message
		}
	}

	switch {
	case strings.TrimSpace(info.Email) == "":
		fields["email"] = "Email is required"
	case !contactEmail.MatchString(info.Email):
		fields["email"] = "Please enter a valid email address"
	}

	switch {
	case strings.TrimSpace(info.Phone) == "":
		fields["phone"] = "Phone number is required"
	case !tenDigits.MatchString(nonDigit.ReplaceAllString(info.Phone, "")):
		fields["phone"] = "Please enter a valid 10-digit phone number"
	}

	switch {
	case strings.TrimSpace(info.Pincode) == "":
		fields["pincode"] = "Pincode is required"
	case !sixDigits.MatchString(info.Pincode):
		fields["pincode"] = "Please enter a valid 6-digit pincode"
	}

	if !req.PaymentMethod.Valid() {
		fields["paymentMethod"] = "Please choose cash on delivery or online payment"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
