package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/vat-catalog/internal/domain/discount"
	"github.com/xenking/vat-catalog/internal/domain/product"
)

const (
	insertDiscountSQL = `INSERT INTO discounts (product_id, discount_id, percent)
		VALUES ($1, $2, $3)`

	discountsPKey        = "discounts_pkey"
	discountsProductFKey = "discounts_product_id_fkey"
)

var _ discount.Store = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Store backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// InsertDiscount inserts the discount row and reads the product back in the
// same transaction, so the returned state includes the committed row. The
// insert runs under a savepoint: the primary key on (product_id, discount_id)
// rejects a second insert for the same pair, which rolls back to the
// savepoint and is reported as discount.Duplicate with the stored state. A
// missing product trips the foreign key and is reported as
// discount.MissingProduct with a nil product. A cancelled context rolls the
// whole transaction back.
func (r *DiscountRepository) InsertDiscount(ctx context.Context, productID string, d product.Discount) (discount.InsertOutcome, *product.Product, error) {
	var (
		outcome discount.InsertOutcome
		after   *product.Product
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		outcome = discount.Inserted
		err := pgx.BeginFunc(ctx, tx, func(sp pgx.Tx) error {
			_, err := sp.Exec(ctx, insertDiscountSQL, productID, d.ID, d.Percent)
			return err
		})
		switch {
		case err == nil:
		case violates(err, codeUniqueViolation, discountsPKey):
			outcome = discount.Duplicate
		case violates(err, codeForeignKeyViolation, discountsProductFKey):
			outcome = discount.MissingProduct
			return nil
		default:
			return err
		}

		rows, err := tx.Query(ctx, listProductByIDSQL, productID)
		if err != nil {
			return fmt.Errorf("reading product back: %w", err)
		}
		collected, err := pgx.CollectRows(rows, scanProductRow)
		if err != nil {
			return fmt.Errorf("reading product back: %w", err)
		}
		if products := product.FromRows(collected); len(products) > 0 {
			after = &products[0]
		}
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("inserting discount %q for product %q: %w", d.ID, productID, err)
	}
	if outcome != discount.MissingProduct && after == nil {
		// Deleted between the insert and the read.
		outcome = discount.MissingProduct
	}
	return outcome, after, nil
}
