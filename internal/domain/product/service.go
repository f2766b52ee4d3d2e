package product

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/vat-catalog/internal/domain/pricing"
)

// InvalidProductError describes why a product could not be created.
type InvalidProductError struct {
	Field  string
	Reason string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product %s: %s", e.Field, e.Reason)
}

// NewProduct is the input for Service.Create.
type NewProduct struct {
	ID        string          `json:"id" validate:"required,max=100,printascii,excludesall= /"`
	Name      string          `json:"name" validate:"required,max=200"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Country   string          `json:"country" validate:"required"`
}

// Service reads products with their discounts and creates new products.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService creates a Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ListByCountry returns all products of a country. The country is matched
// case-insensitively; ErrUnsupportedCountry is returned for anything
// outside the supported set.
func (s *Service) ListByCountry(ctx context.Context, country string) ([]Product, error) {
	c, ok := pricing.ParseCountry(country)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedCountry, "%q", country)
	}

	rows, err := s.repo.ListByCountry(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "list products by country")
	}
	return FromRows(rows), nil
}

// GetByID returns the product with its current discount set. The boolean is
// false when no such product exists.
func (s *Service) GetByID(ctx context.Context, id string) (*Product, bool, error) {
	rows, err := s.repo.ListByID(ctx, id)
	if err != nil {
		return nil, false, errors.Wrap(err, "get product")
	}

	products := FromRows(rows)
	if len(products) == 0 {
		return nil, false, nil
	}
	return &products[0], true, nil
}

// Create validates and stores a new product without discounts.
func (s *Service) Create(ctx context.Context, np NewProduct) (*Product, error) {
	if err := s.validate.Struct(np); err != nil {
		return nil, invalidProduct(err)
	}
	if err := pricing.CheckMagnitude(np.BasePrice); err != nil {
		return nil, &InvalidProductError{Field: "basePrice", Reason: err.Error()}
	}
	if np.BasePrice.IsNegative() {
		return nil, &InvalidProductError{Field: "basePrice", Reason: "must not be negative"}
	}
	c, ok := pricing.ParseCountry(np.Country)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedCountry, "%q", np.Country)
	}

	p := Product{
		ID:        np.ID,
		Name:      strings.TrimSpace(np.Name),
		BasePrice: np.BasePrice,
		Country:   c,
		Discounts: []Discount{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return &p, nil
}

func invalidProduct(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &InvalidProductError{Field: "product", Reason: err.Error()}
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &InvalidProductError{Field: field, Reason: "is required"}
	case "max":
		return &InvalidProductError{Field: field, Reason: "must be at most " + fe.Param() + " characters"}
	default:
		return &InvalidProductError{Field: field, Reason: "contains invalid characters"}
	}
}

// FromRows groups joined product/discount rows by product, keeping the row
// order of first appearance. Discounts are de-duplicated by ID and sorted ascending.
func FromRows(rows []Row) []Product {
	var (
		products = make([]Product, 0)
		index    = make(map[string]int)
		seen     = make(map[string]map[string]struct{})
	)

	for _, r := range rows {
		i, ok := index[r.ProductID]
		if !ok {
			country, known := pricing.ParseCountry(r.Country)
			if !known {
				country = pricing.Country(r.Country)
			}
			i = len(products)
			index[r.ProductID] = i
			seen[r.ProductID] = make(map[string]struct{})
			products = append(products, Product{
				ID:        r.ProductID,
				Name:      r.Name,
				BasePrice: r.BasePrice,
				Country:   country,
				Discounts: []Discount{},
			})
		}

		if r.DiscountID == nil || !r.Percent.Valid {
			continue
		}
		if _, dup := seen[r.ProductID][*r.DiscountID]; dup {
			continue
		}
		seen[r.ProductID][*r.DiscountID] = struct{}{}
		products[i].Discounts = append(products[i].Discounts, Discount{
			ID:      *r.DiscountID,
			Percent: r.Percent.Decimal,
		})
	}

	for i := range products {
		slices.SortFunc(products[i].Discounts, func(a, b Discount) int {
			return strings.Compare(a.ID, b.ID)
		})
	}
	return products
}
