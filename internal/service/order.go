package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/models"
	"go.uber.org/zap"
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder assigns the order number and inserts the order aggregate
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// GetOrderByID returns the order aggregate with items and history
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListOrders returns a page of matching orders and the total count
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	// UpdateOrderStatus persists a status change and its history entry
	UpdateOrderStatus(ctx context.Context, order *models.Order, status, note string, updatedBy uuid.UUID) error
	// UpdateOrderDelivery sets the assigned delivery personnel and type
	UpdateOrderDelivery(ctx context.Context, orderID, deliveryPersonnelID uuid.UUID, deliveryType string) error
	// UpdateOrderPayment sets the payment status and details
	UpdateOrderPayment(ctx context.Context, orderID uuid.UUID, paymentStatus string, details *models.PaymentDetails) error
}

// ProductRepository is interface for the catalog view used during ordering
type ProductRepository interface {
	// GetProductByID returns a product with its discount list
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// DecrementStock atomically subtracts quantity, failing when stock is short
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	// RestoreStock adds quantity back to product stock
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
}

// ShopRepository is interface for the shop view used for acceptance and rosters
type ShopRepository interface {
	// GetShopByID returns shop by id
	GetShopByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	// IsShopDelivery reports whether the user is on the shop delivery roster
	IsShopDelivery(ctx context.Context, shopID, userID uuid.UUID) (bool, error)
}

// UserRepository is interface for the identity view
type UserRepository interface {
	// GetUserByID returns user by id
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// OrderItemRequest is one requested order line
type OrderItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderRequest carries the order creation payload
type CreateOrderRequest struct {
	ShopID            uuid.UUID
	Items             []OrderItemRequest
	ShippingAddress   *models.ShippingAddress
	PaymentMethod     string
	DeliveryFee       float64
	ScheduledDelivery *models.ScheduledDelivery
	Notes             string
}

// ListOrdersRequest carries optional listing filters. ShopID is honored
// for admin actors only.
type ListOrdersRequest struct {
	Status    string
	ShopID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// PaymentUpdateRequest carries a payment status change with optional
// partial details to merge
type PaymentUpdateRequest struct {
	PaymentStatus string
	TransactionID string
	Provider      string
	Amount        float64
	Date          time.Time
}

const defaultListLimit = 10

// OrderService is the order engine: it owns order creation and pricing,
// the status state machine with stock compensation, delivery assignment
// and payment updates. It is the sole mutator of order records.
type OrderService struct {
	orders   OrderRepository
	products ProductRepository
	shops    ShopRepository
	users    UserRepository
}

// NewOrderService creates new OrderService instance
func NewOrderService(orders OrderRepository, products ProductRepository, shops ShopRepository, users UserRepository) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		shops:    shops,
		users:    users,
	}
}

// Create validates the requested items against live catalog state, prices
// them, reserves stock and persists the order. Stock is decremented item
// by item: a failure partway leaves earlier decrements in place.
func (os *OrderService) Create(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, models.ErrNoOrderItems
	}
	if req.ShopID == uuid.Nil {
		return nil, models.ErrShopIDRequired
	}

	shop, err := os.shops.GetShopByID(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}
	if shop.Status != models.ShopStatusActive {
		return nil, models.ErrShopNotActive
	}

	now := time.Now()
	items := make([]models.OrderItem, 0, len(req.Items))
	subtotal := 0.0

	for _, reqItem := range req.Items {
		product, err := os.products.GetProductByID(ctx, reqItem.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, models.ProductNotActiveError{Name: product.Name}
		}
		if product.Stock < reqItem.Quantity {
			return nil, models.InsufficientStockError{Name: product.Name, Available: product.Stock}
		}

		price := product.EffectivePrice(now)
		itemTotal := price * float64(reqItem.Quantity)
		subtotal += itemTotal

		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   reqItem.Quantity,
			Price:      price,
			TotalPrice: itemTotal,
		})

		// conditional decrement: a concurrent order may have taken the
		// stock between the check above and here
		if err := os.products.DecrementStock(ctx, product.ID, reqItem.Quantity); err != nil {
			if errors.Is(err, models.ErrConflictData) {
				current, gerr := os.products.GetProductByID(ctx, product.ID)
				if gerr != nil {
					return nil, gerr
				}
				return nil, models.InsufficientStockError{Name: product.Name, Available: current.Stock}
			}
			return nil, err
		}
	}

	// tax and discount are extension points, not computed here
	tax := 0.0
	discount := 0.0
	total := subtotal + req.DeliveryFee + tax - discount

	order := models.Order{
		CustomerID:        actor.ID,
		ShopID:            req.ShopID,
		Items:             items,
		Subtotal:          subtotal,
		Tax:               tax,
		DeliveryFee:       req.DeliveryFee,
		Discount:          discount,
		Total:             total,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     models.PaymentStatusPending,
		Status:            models.OrderStatusPending,
		ShippingAddress:   req.ShippingAddress,
		DeliveryType:      models.DeliveryTypeShop,
		ScheduledDelivery: req.ScheduledDelivery,
		Notes:             req.Notes,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.OrderStatusPending, UpdatedBy: actor.ID},
		},
	}

	return os.orders.CreateOrder(ctx, &order)
}

// Get returns the order if the actor is allowed to view it
func (os *OrderService) Get(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := os.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canViewOrder(actor, order) {
		return nil, models.ErrNotAuthorized
	}

	return order, nil
}

// List returns a page of orders scoped by the actor role: customers see
// their own orders, vendors and staff their shop, delivery personnel
// their assignments, admins everything.
func (os *OrderService) List(ctx context.Context, actor models.Actor, req ListOrdersRequest) ([]models.Order, int, error) {
	filter := models.OrderFilter{
		Status:    req.Status,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Page:      req.Page,
		Limit:     req.Limit,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultListLimit
	}

	switch actor.Role {
	case models.RoleCustomer:
		id := actor.ID
		filter.CustomerID = &id
	case models.RoleVendor, models.RoleStaff:
		filter.ShopID = actor.ShopID
	case models.RoleDelivery:
		id := actor.ID
		filter.DeliveryPersonnelID = &id
	case models.RoleAdmin:
		// unfiltered; admins may narrow to an explicit shop
		if req.ShopID != nil {
			filter.ShopID = req.ShopID
		}
	}

	return os.orders.ListOrders(ctx, filter)
}

// UpdateStatus moves the order through the lifecycle state machine. On
// cancellation every line item's stock is restored best-effort, product
// by product.
func (os *OrderService) UpdateStatus(ctx context.Context, actor models.Actor, orderID uuid.UUID, status, note string) (*models.Order, error) {
	if status == "" {
		return nil, models.ErrStatusRequired
	}

	order, err := os.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canManageOrder(actor, order) {
		return nil, models.ErrNotAuthorized
	}

	if !transitionAllowed(order.Status, status) {
		return nil, models.InvalidTransitionError{From: order.Status, To: status}
	}

	if status == models.OrderStatusCancelled {
		os.restoreOrderStock(ctx, order)
	}

	if err := os.orders.UpdateOrderStatus(ctx, order, status, note, actor.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// AssignDelivery assigns a delivery person to the order. Shop-type
// assignment additionally requires the person on the shop roster.
// Assignment is independent of lifecycle status and leaves no history.
func (os *OrderService) AssignDelivery(ctx context.Context, actor models.Actor, orderID, deliveryPersonnelID uuid.UUID, deliveryType string) (*models.Order, error) {
	if deliveryPersonnelID == uuid.Nil || deliveryType == "" {
		return nil, models.ErrDeliveryAssignRequired
	}
	if deliveryType != models.DeliveryTypeShop && deliveryType != models.DeliveryTypeGlobal {
		return nil, models.ErrInvalidDeliveryType
	}

	order, err := os.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canManageShopOrder(actor, order) {
		return nil, models.ErrNotAuthorized
	}

	person, err := os.users.GetUserByID(ctx, deliveryPersonnelID)
	if err != nil {
		return nil, err
	}
	if person.Role != models.RoleDelivery {
		return nil, models.ErrNotDeliveryPersonnel
	}

	if deliveryType == models.DeliveryTypeShop {
		if _, err := os.shops.GetShopByID(ctx, order.ShopID); err != nil {
			return nil, err
		}
		onRoster, err := os.shops.IsShopDelivery(ctx, order.ShopID, deliveryPersonnelID)
		if err != nil {
			return nil, err
		}
		if !onRoster {
			return nil, models.ErrNotShopDelivery
		}
	}

	if err := os.orders.UpdateOrderDelivery(ctx, order.ID, deliveryPersonnelID, deliveryType); err != nil {
		return nil, err
	}

	order.DeliveryPersonnelID = &deliveryPersonnelID
	order.DeliveryType = deliveryType
	order.DeliveryPersonnelName = person.Name

	return order, nil
}

// UpdatePayment sets the payment status and merges partial payment
// details. Payment status is deliberately not constrained by order
// status. Re-applying the same update is accepted and does not touch
// the status history.
func (os *OrderService) UpdatePayment(ctx context.Context, actor models.Actor, orderID uuid.UUID, req PaymentUpdateRequest) (*models.Order, error) {
	if req.PaymentStatus == "" {
		return nil, models.ErrPaymentStatusRequired
	}

	order, err := os.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !canManageShopOrder(actor, order) {
		return nil, models.ErrNotAuthorized
	}

	details := order.PaymentDetails
	if req.TransactionID != "" || req.Provider != "" || req.Amount != 0 || !req.Date.IsZero() {
		merged := models.PaymentDetails{}
		if details != nil {
			merged = *details
		}
		if req.TransactionID != "" {
			merged.TransactionID = req.TransactionID
		}
		if req.Provider != "" {
			merged.Provider = req.Provider
		}
		if req.Amount != 0 {
			merged.Amount = req.Amount
		}
		merged.Date = req.Date
		if merged.Date.IsZero() {
			merged.Date = time.Now()
		}
		details = &merged
	}

	if err := os.orders.UpdateOrderPayment(ctx, order.ID, req.PaymentStatus, details); err != nil {
		return nil, err
	}

	order.PaymentStatus = req.PaymentStatus
	order.PaymentDetails = details

	return order, nil
}

// restoreOrderStock puts every line item's quantity back on the shelf.
// Best effort: a missing product is skipped, a failed update is logged
// and the loop continues.
func (os *OrderService) restoreOrderStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := os.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Log.Warn("restore stock",
				zap.String("order", order.OrderNumber),
				zap.String("product", item.ProductID.String()),
				zap.Error(err))
		}
	}
}

// transitionAllowed reports whether the state machine permits from → to
func transitionAllowed(from, to string) bool {
	for _, allowed := range models.ValidTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// canViewOrder is the read authorization predicate: the order's
// customer, the shop's staff, the assigned delivery person or an admin
func canViewOrder(actor models.Actor, order *models.Order) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if order.CustomerID == actor.ID {
		return true
	}
	if actor.ShopID != nil && *actor.ShopID == order.ShopID {
		return true
	}
	if order.DeliveryPersonnelID != nil && *order.DeliveryPersonnelID == actor.ID {
		return true
	}
	return false
}

// canManageOrder allows status changes: shop staff, the assigned
// delivery person or an admin. Customers are excluded.
func canManageOrder(actor models.Actor, order *models.Order) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.ShopID != nil && *actor.ShopID == order.ShopID {
		return true
	}
	if order.DeliveryPersonnelID != nil && *order.DeliveryPersonnelID == actor.ID {
		return true
	}
	return false
}

// canManageShopOrder allows delivery assignment and payment updates:
// shop staff or an admin only
func canManageShopOrder(actor models.Actor, order *models.Order) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.ShopID != nil && *actor.ShopID == order.ShopID
}
