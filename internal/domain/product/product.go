package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/vat-catalog/internal/domain/pricing"
)

var (
	// ErrAlreadyExists is returned when a product with the same ID is already stored.
	ErrAlreadyExists = errors.New("product already exists")
	// ErrUnsupportedCountry is returned for countries outside the supported set.
	ErrUnsupportedCountry = errors.New("unsupported country")
)

// Product is a catalog item together with the discounts attached to it.
type Product struct {
	ID        string
	Name      string
	BasePrice decimal.Decimal
	Country   pricing.Country
	// Discounts are ordered by ID ascending.
	Discounts []Discount
}

// Discount is a percentage reduction attached to a single product. The pair
// (product ID, discount ID) is immutable once stored.
type Discount struct {
	ID      string
	Percent decimal.Decimal
}

// TotalDiscount returns the sum of all attached discount percents.
func (p Product) TotalDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Discounts {
		total = total.Add(d.Percent)
	}
	return total
}

// FinalPrice derives the price after discounts and VAT. It is never stored.
func (p Product) FinalPrice() decimal.Decimal {
	return pricing.FinalPrice(p.BasePrice, p.TotalDiscount(), p.Country)
}

// Discount returns the attached discount with the given ID.
func (p Product) Discount(id string) (Discount, bool) {
	for _, d := range p.Discounts {
		if d.ID == id {
			return d, true
		}
	}
	return Discount{}, false
}

// Row is one record of the products-left-join-discounts read. DiscountID
// and Percent are unset for products without discounts.
type Row struct {
	ProductID  string
	Name       string
	BasePrice  decimal.Decimal
	Country    string
	DiscountID *string
	Percent    decimal.NullDecimal
}

// Repository defines the catalog reads and product creation offered by the
// persistent store.
type Repository interface {
	// ListByCountry returns joined rows for every product in the given
	// country, compared case-insensitively.
	ListByCountry(ctx context.Context, country pricing.Country) ([]Row, error)
	// ListByID returns joined rows for a single product. No rows means the
	// product does not exist.
	ListByID(ctx context.Context, id string) ([]Row, error)
	// Create inserts a product without discounts. Returns an error wrapping
	// ErrAlreadyExists when the ID is taken.
	Create(ctx context.Context, p Product) error
}
