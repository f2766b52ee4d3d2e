package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/vat-catalog/internal/domain/pricing"
	"github.com/xenking/vat-catalog/internal/domain/product"
)

const (
	productRowColumns = `p.id, p.name, p.base_price, p.country, d.discount_id, d.percent
		FROM products p LEFT JOIN discounts d ON d.product_id = p.id`

	listProductsByCountrySQL = `SELECT ` + productRowColumns + `
		WHERE lower(p.country) = lower($1) ORDER BY p.id, d.discount_id`

	listProductByIDSQL = `SELECT ` + productRowColumns + `
		WHERE p.id = $1 ORDER BY d.discount_id`

	createProductSQL = `INSERT INTO products (id, name, base_price, country)
		VALUES ($1, $2, $3, $4)`

	productsPKey = "products_pkey"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// ListByCountry returns products of a country joined with their discounts.
func (r *ProductRepository) ListByCountry(ctx context.Context, country pricing.Country) ([]product.Row, error) {
	rows, err := r.pool.Query(ctx, listProductsByCountrySQL, string(country))
	if err != nil {
		return nil, fmt.Errorf("listing products for %q: %w", country, err)
	}
	return pgx.CollectRows(rows, scanProductRow)
}

// ListByID returns a single product joined with its discounts. The result is
// empty when the product does not exist.
func (r *ProductRepository) ListByID(ctx context.Context, id string) ([]product.Row, error) {
	rows, err := r.pool.Query(ctx, listProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return pgx.CollectRows(rows, scanProductRow)
}

// Create inserts a product. A taken ID yields an error wrapping
// product.ErrAlreadyExists.
func (r *ProductRepository) Create(ctx context.Context, p product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL, p.ID, p.Name, p.BasePrice, string(p.Country))
	if err != nil {
		if violates(err, codeUniqueViolation, productsPKey) {
			return fmt.Errorf("creating product %q: %w", p.ID, product.ErrAlreadyExists)
		}
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

func scanProductRow(row pgx.CollectableRow) (product.Row, error) {
	var r product.Row
	err := row.Scan(
		&r.ProductID, &r.Name, &r.BasePrice, &r.Country,
		&r.DiscountID, &r.Percent,
	)
	return r, err
}
