package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrConflictData           = errors.New("data conflicts with existing data")
	ErrDataNotFound           = errors.New("data not found")
	ErrInternalError          = errors.New("internal error")
	ErrNoOrderItems           = errors.New("no order items")
	ErrShopIDRequired         = errors.New("shop id is required")
	ErrStatusRequired         = errors.New("status is required")
	ErrShopNotFound           = errors.New("shop not found")
	ErrShopNotActive          = errors.New("shop is not active")
	ErrOrderNotFound          = errors.New("order not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrNotAuthorized          = errors.New("not authorized")
	ErrNotDeliveryPersonnel   = errors.New("selected user is not a delivery personnel")
	ErrNotShopDelivery        = errors.New("selected delivery personnel does not belong to this shop")
	ErrDeliveryAssignRequired = errors.New("delivery personnel id and type are required")
	ErrInvalidDeliveryType    = errors.New("invalid delivery type")
	ErrPaymentStatusRequired  = errors.New("payment status is required")
)

// ProductNotFoundError names the missing product id
type ProductNotFoundError struct {
	ID uuid.UUID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ID)
}

// ProductNotActiveError names the unavailable product
type ProductNotActiveError struct {
	Name string
}

func (e ProductNotActiveError) Error() string {
	return fmt.Sprintf("product is not available: %s", e.Name)
}

// InsufficientStockError reports the stock actually available
type InsufficientStockError struct {
	Name      string
	Available int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. Available: %d", e.Name, e.Available)
}

// InvalidTransitionError names both states of a rejected transition
type InvalidTransitionError struct {
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}
