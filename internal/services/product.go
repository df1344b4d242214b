package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned for ids outside the catalog
var ErrProductNotFound = errors.New("product not found")

// Sort orders accepted by ProductFilter.Sort
const (
	SortRecommended = "recommended"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
)

// AllCategories selects every category
const AllCategories = "All Products"

// ProductFilter narrows a catalog listing. Zero price bounds are open.
type ProductFilter struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Sort     string
}

// ProductService serves the static product catalog
type ProductService struct {
	products []models.Product
	byID     map[int64]models.Product
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
}

// NewProductService creates a catalog over products, kept in the given order
func NewProductService(products []models.Product, logger *zap.Logger, m *metrics.AppMetrics) *ProductService {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &ProductService{
		products: slices.Clone(products),
		byID:     byID,
		logger:   logger,
		metrics:  m,
	}
}

// ListProducts returns the products matching f
func (s *ProductService) ListProducts(f ProductFilter) []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if f.Category != "" && f.Category != AllCategories && !strings.EqualFold(string(p.Category), f.Category) {
			continue
		}
		if f.MinPrice > 0 && p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b models.Product) int { return compareFloat(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b models.Product) int { return compareFloat(b.Price, a.Price) })
	}
	return out
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}

	s.metrics.Add(ctx, s.metrics.ProductsViewed, 1,
		attribute.Int64("product_id", id),
		attribute.String("product_category", string(p.Category)))
	return p, nil
}

// PriceBounds returns the lowest and highest catalog price
func (s *ProductService) PriceBounds() (lowest, highest float64) {
	for i, p := range s.products {
		if i == 0 || p.Price < lowest {
			lowest = p.Price
		}
		if i == 0 || p.Price > highest {
			highest = p.Price
		}
	}
	return lowest, highest
}

// Categories lists category names in display order
func (s *ProductService) Categories() []string {
	return []string{
		string(models.CategoryPillow),
		string(models.CategoryCushion),
		string(models.CategoryBolster),
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func price(v float64) *float64 { return &v }

// DefaultProducts is the storefront catalog
func DefaultProducts() []models.Product {
	return []models.Product{
		{
			ID:            1,
			Name:          "Doctor Pillow",
			Price:         1250,
			OriginalPrice: price(2500),
			Badge:         "Best Seller",
			Image:         "/img/doctor-pillow.jpg",
			Images: []string{
				"/img/doctor-pillow.jpg",
				"/img/doctor-pillow-2.jpg",
				"/img/doctor-pillow-3.jpg",
				"/img/doctor-pillow-4.jpg",
			},
			Description: "Doctor recommended pillow with memory foam core, cooling gel technology, and non-allergenic materials. Trusted by professionals for neck pain relief and restorative sleep.",
			Category:    models.CategoryPillow,
		},
		{
			ID:    2,
			Name:  "Paradise Pillow",
			Price: 999,
			Badge: "Best Seller",
			Image: "/img/paradise-pillow.jpg",
			Images: []string{
				"/img/paradise-pillow.jpg",
				"/img/paradise-pillow-2.jpg",
				"/img/paradise-pillow-3.jpg",
				"/img/paradise-pillow-4.jpg",
				"/img/paradise-pillow-5.jpg",
			},
			Description: "Ultimate softness for peaceful sleep",
			Category:    models.CategoryPillow,
		},
		{
			ID:            3,
			Name:          "Neem Plus Pillow",
			Price:         1500,
			OriginalPrice: price(2000),
			Badge:         "Best Seller",
			Image:         "/img/neem-plus-pillow.jpg",
			Images: []string{
				"/img/neem-plus-pillow.jpg",
				"/img/neem-plus-pillow-2.jpg",
				"/img/neem-plus-pillow-3.jpg",
				"/img/neem-plus-pillow-4.jpg",
				"/img/neem-plus-pillow-5.jpg",
			},
			Description: "Natural neem properties for healthy sleep",
			Category:    models.CategoryPillow,
		},
		{
			ID:    4,
			Name:  "Heritage Pillow",
			Price: 899,
			Badge: "Best Seller",
			Image: "/img/heritage-pillow.jpg",
			Images: []string{
				"/img/heritage-pillow.jpg",
				"/img/heritage-pillow-2.jpg",
				"/img/heritage-pillow-3.jpg",
				"/img/heritage-pillow-4.jpg",
			},
			Description: "Classic comfort with modern technology",
			Category:    models.CategoryPillow,
		},
	}
}
