package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/middleware"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/oauth"
	"github.com/shrutimovaliya24/softcool/internal/services"
	"github.com/shrutimovaliya24/softcool/pkg/config"
	"go.uber.org/zap"
)

// LoginPath is where refused cart and favorite calls send the user
const LoginPath = "/login"

// App holds application dependencies
type App struct {
	config          *config.Config
	logger          *zap.Logger
	metrics         *metrics.AppMetrics
	cookies         sessions.Store
	registry        *services.SessionRegistry
	productService  *services.ProductService
	checkoutService *services.CheckoutService
	verifiedEmails  *services.VerifiedEmails
	oauthClient     *oauth.Client
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.AppMetrics,
	cookies sessions.Store,
	registry *services.SessionRegistry,
	ps *services.ProductService,
	cs *services.CheckoutService,
	ve *services.VerifiedEmails,
	oc *oauth.Client,
) *App {
	return &App{
		config:          cfg,
		logger:          logger,
		metrics:         m,
		cookies:         cookies,
		registry:        registry,
		productService:  ps,
		checkoutService: cs,
		verifiedEmails:  ve,
		oauthClient:     oc,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware(a.config.BaseURL))
	r.Use(middleware.ErrorHandlerMiddleware(a.logger))
	r.Use(middleware.MetricsMiddleware(a.metrics, a.logger))

	// mux runs middlewares only on a matched route, so preflights need one
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Stateless auth endpoints
	r.HandleFunc("/api/auth/google/url", a.GoogleAuthURLHandler).Methods("GET")
	r.HandleFunc(config.CallbackPath, a.GoogleCallbackHandler).Methods("GET")
	r.HandleFunc("/api/auth/verify-credentials", a.VerifyCredentialsHandler).Methods("POST")

	// Catalog
	r.HandleFunc("/api/products", a.ListProductsHandler).Methods("GET")
	r.HandleFunc("/api/products/{id}", a.GetProductHandler).Methods("GET")

	// Device scoped routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.DeviceMiddleware(a.cookies, a.registry, a.logger))

	api.HandleFunc("/auth/login", a.LoginHandler).Methods("POST")
	api.HandleFunc("/auth/oauth/complete", a.OAuthCompleteHandler).Methods("POST")
	api.HandleFunc("/auth/logout", a.LogoutHandler).Methods("POST")
	api.HandleFunc("/auth/me", a.MeHandler).Methods("GET")

	api.HandleFunc("/cart", a.GetCartHandler).Methods("GET")
	api.HandleFunc("/cart", a.ClearCartHandler).Methods("DELETE")
	api.HandleFunc("/cart/add", a.AddToCartHandler).Methods("POST")
	api.HandleFunc("/cart/remove", a.RemoveFromCartHandler).Methods("POST")
	api.HandleFunc("/cart/quantity", a.UpdateQuantityHandler).Methods("PUT")

	api.HandleFunc("/favorites", a.ListFavoritesHandler).Methods("GET")
	api.HandleFunc("/favorites/{id}/toggle", a.ToggleFavoriteHandler).Methods("POST")

	api.HandleFunc("/checkout", a.CheckoutHandler).Methods("POST")
	api.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	api.HandleFunc("/orders/{id}", a.GetOrderHandler).Methods("GET")
	api.HandleFunc("/orders/{id}/cancel", a.CancelOrderHandler).Methods("POST")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ListProductsHandler handles GET /api/products
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ProductFilter{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
	if v := q.Get("minPrice"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = parsed
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = parsed
		}
	}

	writeJSON(w, http.StatusOK, a.productService.ListProducts(filter))
}

// GetProductHandler handles GET /api/products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := a.productService.GetProduct(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// GetCartHandler handles GET /api/cart
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// AddToCartHandler handles POST /api/cart/add. The line is built from the
// catalog so the client never supplies a price.
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := a.productService.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	decision, err := sess.Cart.AddToCart(r.Context(), models.CartItem{
		ID:            product.ID,
		Name:          product.Name,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Image:         product.Image,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !decision.Allowed {
		writeDenied(w, decision)
		return
	}

	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// RemoveFromCartHandler handles POST /api/cart/remove
func (a *App) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req models.AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := sess.Cart.RemoveFromCart(r.Context(), req.ProductID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// UpdateQuantityHandler handles PUT /api/cart/quantity
func (a *App) UpdateQuantityHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req models.UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := sess.Cart.UpdateQuantity(r.Context(), req.ProductID, req.Quantity); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// ClearCartHandler handles DELETE /api/cart
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	if err := sess.Cart.ClearCart(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// ListFavoritesHandler handles GET /api/favorites
func (a *App) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"favorites": sess.Cart.Favorites()})
}

// ToggleFavoriteHandler handles POST /api/favorites/{id}/toggle
func (a *App) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	if _, err := a.productService.GetProduct(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	decision, err := sess.Cart.ToggleFavorite(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !decision.Allowed {
		writeDenied(w, decision)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        id,
		"favorite":  sess.Cart.IsFavorite(id),
		"favorites": sess.Cart.Favorites(),
	})
}

type validationResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

// CheckoutHandler handles POST /api/checkout
func (a *App) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := a.checkoutService.Checkout(r.Context(), sess, req)
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		writeDenied(w, services.Decision{Reason: services.ReasonLoginRequired})
		return
	case errors.Is(err, services.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Success: false, Error: err.Error()})
		return
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Success: false,
			Error:   "Please correct the highlighted fields",
			Fields:  verr.Fields,
		})
		return
	case err != nil:
		a.logger.Error("Checkout failed", zap.String("device_id", sess.DeviceID), zap.Error(err))
		http.Error(w, "Failed to place order", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// ListOrdersHandler handles GET /api/orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Orders.Orders())
}

// GetOrderHandler handles GET /api/orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	order, err := sess.Orders.GetOrderByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, services.ErrOrderNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// CancelOrderHandler handles POST /api/orders/{id}/cancel
func (a *App) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := sess.Orders.GetOrderByID(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	changed, err := sess.Orders.CancelOrder(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !changed {
		writeJSON(w, http.StatusConflict, models.APIResponse{Success: false, Error: "Order cannot be cancelled"})
		return
	}

	order, err := sess.Orders.GetOrderByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// session returns the device session or answers 500
func (a *App) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		a.logger.Error("Device session missing from request context", zap.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return sess, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDenied answers a refused mutation with a pointer to the login page
func writeDenied(w http.ResponseWriter, d services.Decision) {
	writeJSON(w, http.StatusUnauthorized, models.APIResponse{
		Success:  false,
		Error:    d.Reason,
		Redirect: LoginPath,
	})
}
