package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vendora/vendora/internal/models"
	"github.com/vendora/vendora/internal/repository/postgres"
)

const (
	selectProductByIDQuery = `
						SELECT id, shop_id, name, price, stock, is_active FROM products
						WHERE id = $1
`
	selectProductDiscountsQuery = `
						SELECT id, product_id, kind, value, start_date, end_date, is_active FROM product_discounts
						WHERE product_id = $1
						ORDER BY start_date
`
	decrementStockQuery = `
						UPDATE products
						SET stock = stock - $1
						WHERE id = $2 AND stock >= $1
`
	restoreStockQuery = `
						UPDATE products
						SET stock = stock + $1
						WHERE id = $2
`
)

// ProductRepository implements the partial catalog view: the order engine
// reads products and writes only stock.
type ProductRepository struct {
	db *postgres.DB
}

// NewProductRepository creates new ProductRepository instance
func NewProductRepository(db *postgres.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetProductByID returns a product with its discount list
func (pr *ProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	err := pr.db.QueryRow(ctx, selectProductByIDQuery, id).Scan(
		&product.ID, &product.ShopID, &product.Name, &product.Price, &product.Stock, &product.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ProductNotFoundError{ID: id}
		}
		return nil, err
	}

	rows, err := pr.db.Query(ctx, selectProductDiscountsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		d := models.Discount{}
		err = rows.Scan(&d.ID, &d.ProductID, &d.Kind, &d.Value, &d.StartDate, &d.EndDate, &d.IsActive)
		if err != nil {
			continue
		}
		product.Discounts = append(product.Discounts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &product, nil
}

// DecrementStock atomically subtracts quantity from product stock. It
// fails with ErrConflictData when the remaining stock is lower than the
// requested quantity, so a concurrent order cannot oversell.
func (pr *ProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	cmd, err := pr.db.Exec(ctx, decrementStockQuery, quantity, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrConflictData
	}
	return nil
}

// RestoreStock adds quantity back to product stock. Missing products are
// reported as ProductNotFoundError and skipped by the caller.
func (pr *ProductRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	cmd, err := pr.db.Exec(ctx, restoreStockQuery, quantity, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ProductNotFoundError{ID: id}
	}
	return nil
}
