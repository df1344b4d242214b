package models

// ProductCategory groups catalog products for browsing
type ProductCategory string

const (
	CategoryPillow  ProductCategory = "Pillow"
	CategoryCushion ProductCategory = "Cushion"
	CategoryBolster ProductCategory = "Bolster"
)

// Product represents a product in the catalog
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         float64         `json:"price"`
	OriginalPrice *float64        `json:"originalPrice,omitempty"`
	Badge         string          `json:"badge,omitempty"`
	Image         string          `json:"image"`
	Images        []string        `json:"images,omitempty"`
	Description   string          `json:"description,omitempty"`
	Category      ProductCategory `json:"category"`
}

// CartItem is a single line item in a cart. Quantity is always >= 1.
type CartItem struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Quantity      int      `json:"quantity"`
}

// OrderItem mirrors CartItem at the time the order was placed
type OrderItem = CartItem

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// Valid reports whether p is a known payment method.
func (p PaymentMethod) Valid() bool {
	return p == PaymentCOD || p == PaymentOnline
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is modeled from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether s may move to next.
//
//	pending -> confirmed -> shipped -> delivered
//	pending | confirmed | shipped -> cancelled
//
// Only the cancel edge is driven by the storefront; the forward edges are
// left for an external fulfilment process.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch next {
	case OrderStatusConfirmed:
		return s == OrderStatusPending
	case OrderStatusShipped:
		return s == OrderStatusConfirmed
	case OrderStatusDelivered:
		return s == OrderStatusShipped
	case OrderStatusCancelled:
		return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusShipped
	}
	return false
}

// ShippingInfo is the address block collected at checkout
type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
}

// Order is an immutable snapshot of a checkout; only Status changes.
type Order struct {
	ID            string        `json:"id"`
	OrderNumber   string        `json:"orderNumber"`
	Items         []OrderItem   `json:"items"`
	Total         float64       `json:"total"`
	Subtotal      float64       `json:"subtotal"`
	Shipping      float64       `json:"shipping"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ShippingInfo  ShippingInfo  `json:"shippingInfo"`
	Status        OrderStatus   `json:"status"`
	OrderDate     string        `json:"orderDate"`
	UserID        string        `json:"userId,omitempty"`
}

// OrderDraft is everything addOrder needs from the caller
type OrderDraft struct {
	Items         []OrderItem   `json:"items"`
	Total         float64       `json:"total"`
	Subtotal      float64       `json:"subtotal"`
	Shipping      float64       `json:"shipping"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ShippingInfo  ShippingInfo  `json:"shippingInfo"`
}

// ProviderGoogle is the only identity provider supported.
const ProviderGoogle = "google"

// UserIdentity is the minimal authenticated-user record
type UserIdentity struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// CartResponse represents a cart with its derived totals
type CartResponse struct {
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
	TotalItems int        `json:"totalItems"`
}

// AddToCartRequest represents a request to add a catalog product to the cart
type AddToCartRequest struct {
	ProductID int64 `json:"productId"`
}

// UpdateQuantityRequest sets the quantity of a cart line
type UpdateQuantityRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest represents the submitted checkout form
type CheckoutRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ShippingInfo  ShippingInfo  `json:"shippingInfo"`
}

// VerifyCredentialsRequest is the body of POST /api/auth/verify-credentials
type VerifyCredentialsRequest struct {
	Email string `json:"email"`
}

// OAuthCompleteRequest carries the data of an OAUTH_SUCCESS message
type OAuthCompleteRequest struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// APIResponse is the success/error envelope used by the auth endpoints
type APIResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// SessionResponse describes the current device session
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserIdentity `json:"user,omitempty"`
	HasSignedUp   bool          `json:"hasSignedUp"`
}
