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
	selectShopByIDQuery = `
						SELECT id, name, status FROM shops
						WHERE id = $1
`
	selectShopDeliveryQuery = `
						SELECT EXISTS (
							SELECT 1 FROM shop_delivery_personnel
							WHERE shop_id = $1 AND user_id = $2
						)
`
)

// ShopRepository implements the read-only shop view
type ShopRepository struct {
	db *postgres.DB
}

// NewShopRepository creates new ShopRepository instance
func NewShopRepository(db *postgres.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// GetShopByID returns shop by id
func (sr *ShopRepository) GetShopByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	shop := models.Shop{}
	err := sr.db.QueryRow(ctx, selectShopByIDQuery, id).Scan(&shop.ID, &shop.Name, &shop.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrShopNotFound
		}
		return nil, err
	}
	return &shop, nil
}

// IsShopDelivery reports whether the user is on the shop delivery roster
func (sr *ShopRepository) IsShopDelivery(ctx context.Context, shopID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := sr.db.QueryRow(ctx, selectShopDeliveryQuery, shopID, userID).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}
