package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/vendora/internal/models"
)

type fakeOrderRepo struct {
	orders     map[uuid.UUID]*models.Order
	counter    int64
	lastFilter models.OrderFilter
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	f.counter++
	order.ID = uuid.New()
	order.OrderNumber = models.FormatOrderNumber(time.Now(), f.counter)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.StatusHistory {
		order.StatusHistory[i].OrderID = order.ID
		order.StatusHistory[i].CreatedAt = time.Now()
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	f.lastFilter = filter
	orders := []models.Order{}
	for _, order := range f.orders {
		orders = append(orders, *order)
	}
	return orders, len(orders), nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(_ context.Context, order *models.Order, status, note string, updatedBy uuid.UUID) error {
	stored, ok := f.orders[order.ID]
	if !ok {
		return models.ErrOrderNotFound
	}
	entry := models.StatusHistoryEntry{
		OrderID:   order.ID,
		Status:    status,
		Note:      note,
		UpdatedBy: updatedBy,
		CreatedAt: time.Now(),
	}
	stored.Status = status
	stored.StatusHistory = append(stored.StatusHistory, entry)
	order.Status = status
	order.StatusHistory = append(order.StatusHistory, entry)
	return nil
}

func (f *fakeOrderRepo) UpdateOrderDelivery(_ context.Context, orderID, deliveryPersonnelID uuid.UUID, deliveryType string) error {
	stored, ok := f.orders[orderID]
	if !ok {
		return models.ErrOrderNotFound
	}
	stored.DeliveryPersonnelID = &deliveryPersonnelID
	stored.DeliveryType = deliveryType
	return nil
}

func (f *fakeOrderRepo) UpdateOrderPayment(_ context.Context, orderID uuid.UUID, paymentStatus string, details *models.PaymentDetails) error {
	stored, ok := f.orders[orderID]
	if !ok {
		return models.ErrOrderNotFound
	}
	stored.PaymentStatus = paymentStatus
	stored.PaymentDetails = details
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) GetProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, models.ProductNotFoundError{ID: id}
	}
	cp := *product
	return &cp, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	product, ok := f.products[id]
	if !ok || product.Stock < quantity {
		return models.ErrConflictData
	}
	product.Stock -= quantity
	return nil
}

func (f *fakeProductRepo) RestoreStock(_ context.Context, id uuid.UUID, quantity int) error {
	product, ok := f.products[id]
	if !ok {
		return models.ProductNotFoundError{ID: id}
	}
	product.Stock += quantity
	return nil
}

type fakeShopRepo struct {
	shops  map[uuid.UUID]*models.Shop
	roster map[uuid.UUID][]uuid.UUID
}

func newFakeShopRepo(shops ...*models.Shop) *fakeShopRepo {
	f := &fakeShopRepo{shops: map[uuid.UUID]*models.Shop{}, roster: map[uuid.UUID][]uuid.UUID{}}
	for _, s := range shops {
		f.shops[s.ID] = s
	}
	return f
}

func (f *fakeShopRepo) GetShopByID(_ context.Context, id uuid.UUID) (*models.Shop, error) {
	shop, ok := f.shops[id]
	if !ok {
		return nil, models.ErrShopNotFound
	}
	return shop, nil
}

func (f *fakeShopRepo) IsShopDelivery(_ context.Context, shopID, userID uuid.UUID) (bool, error) {
	for _, id := range f.roster[shopID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

type fixture struct {
	svc      *OrderService
	orders   *fakeOrderRepo
	products *fakeProductRepo
	shops    *fakeShopRepo
	users    *fakeUserRepo

	shop     *models.Shop
	customer models.Actor
}

func newFixture(products ...*models.Product) *fixture {
	shop := &models.Shop{ID: uuid.New(), Name: "Green Grocer", Status: models.ShopStatusActive}
	for _, p := range products {
		p.ShopID = shop.ID
	}

	f := &fixture{
		orders:   newFakeOrderRepo(),
		products: newFakeProductRepo(products...),
		shops:    newFakeShopRepo(shop),
		users:    newFakeUserRepo(),
		shop:     shop,
		customer: models.Actor{ID: uuid.New(), Role: models.RoleCustomer},
	}
	f.svc = NewOrderService(f.orders, f.products, f.shops, f.users)
	return f
}

func (f *fixture) staffActor() models.Actor {
	shopID := f.shop.ID
	return models.Actor{ID: uuid.New(), Role: models.RoleStaff, ShopID: &shopID}
}

func product(name string, price float64, stock int) *models.Product {
	return &models.Product{ID: uuid.New(), Name: name, Price: price, Stock: stock, IsActive: true}
}

func TestOrderService_Create(t *testing.T) {
	apples := product("Apples", 100, 10)
	bread := product("Bread", 30, 5)
	f := newFixture(apples, bread)

	order, err := f.svc.Create(context.Background(), f.customer, CreateOrderRequest{
		ShopID: f.shop.ID,
		Items: []OrderItemRequest{
			{ProductID: apples.ID, Quantity: 2},
			{ProductID: bread.ID, Quantity: 1},
		},
		PaymentMethod: models.PaymentMethodCash,
		DeliveryFee:   5,
	})
	require.NoError(t, err)

	assert.Equal(t, 230.0, order.Subtotal)
	assert.Equal(t, 235.0, order.Total)
	assert.Equal(t, order.Subtotal+order.DeliveryFee+order.Tax-order.Discount, order.Total)
	for _, item := range order.Items {
		assert.Equal(t, item.Price*float64(item.Quantity), item.TotalPrice)
	}

	// stock reserved
	assert.Equal(t, 8, f.products.products[apples.ID].Stock)
	assert.Equal(t, 4, f.products.products[bread.ID].Stock)

	// pending with a single history entry by the customer
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, f.customer.ID, order.StatusHistory[0].UpdatedBy)

	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.NotEmpty(t, order.OrderNumber)
}

func TestOrderService_Create_Validation(t *testing.T) {
	apples := product("Apples", 100, 10)
	inactive := product("Old Stock", 50, 10)
	inactive.IsActive = false

	tests := []struct {
		name    string
		setup   func(f *fixture)
		req     func(f *fixture) CreateOrderRequest
		wantErr error
	}{
		{
			name: "no_items",
			req: func(f *fixture) CreateOrderRequest {
				return CreateOrderRequest{ShopID: f.shop.ID}
			},
			wantErr: models.ErrNoOrderItems,
		},
		{
			name: "missing_shop",
			req: func(f *fixture) CreateOrderRequest {
				return CreateOrderRequest{Items: []OrderItemRequest{{ProductID: apples.ID, Quantity: 1}}}
			},
			wantErr: models.ErrShopIDRequired,
		},
		{
			name: "shop_not_found",
			req: func(f *fixture) CreateOrderRequest {
				return CreateOrderRequest{
					ShopID: uuid.New(),
					Items:  []OrderItemRequest{{ProductID: apples.ID, Quantity: 1}},
				}
			},
			wantErr: models.ErrShopNotFound,
		},
		{
			name: "shop_not_active",
			setup: func(f *fixture) {
				f.shop.Status = models.ShopStatusSuspended
			},
			req: func(f *fixture) CreateOrderRequest {
				return CreateOrderRequest{
					ShopID: f.shop.ID,
					Items:  []OrderItemRequest{{ProductID: apples.ID, Quantity: 1}},
				}
			},
			wantErr: models.ErrShopNotActive,
		},
		{
			name: "product_not_active",
			req: func(f *fixture) CreateOrderRequest {
				return CreateOrderRequest{
					ShopID: f.shop.ID,
					Items:  []OrderItemRequest{{ProductID: inactive.ID, Quantity: 1}},
				}
			},
			wantErr: models.ProductNotActiveError{Name: "Old Stock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(apples, inactive)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.Create(context.Background(), f.customer, tt.req(f))
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestOrderService_Create_ProductNotFound(t *testing.T) {
	f := newFixture()
	missing := uuid.New()

	_, err := f.svc.Create(context.Background(), f.customer, CreateOrderRequest{
		ShopID: f.shop.ID,
		Items:  []OrderItemRequest{{ProductID: missing, Quantity: 1}},
	})

	var notFound models.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.ID)
}

func TestOrderService_Create_InsufficientStock(t *testing.T) {
	apples := product("Apples", 100, 2)
	f := newFixture(apples)

	_, err := f.svc.Create(context.Background(), f.customer, CreateOrderRequest{
		ShopID: f.shop.ID,
		Items:  []OrderItemRequest{{ProductID: apples.ID, Quantity: 3}},
	})

	var stockErr models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	// no stock mutation for the failed item
	assert.Equal(t, 2, f.products.products[apples.ID].Stock)
}

func TestOrderService_Create_PartialFailureKeepsEarlierDecrements(t *testing.T) {
	apples := product("Apples", 100, 10)
	bread := product("Bread", 30, 1)
	f := newFixture(apples, bread)

	_, err := f.svc.Create(context.Background(), f.customer, CreateOrderRequest{
		ShopID: f.shop.ID,
		Items: []OrderItemRequest{
			{ProductID: apples.ID, Quantity: 2},
			{ProductID: bread.ID, Quantity: 5},
		},
	})
	require.Error(t, err)

	// stock mutation is sequential per item: the first item's
	// decrement is not rolled back when a later item fails
	assert.Equal(t, 8, f.products.products[apples.ID].Stock)
	assert.Equal(t, 1, f.products.products[bread.ID].Stock)
}

func TestOrderService_Create_Discounts(t *testing.T) {
	now := time.Now()
	active := func(kind string, value float64) models.Discount {
		return models.Discount{
			Kind:      kind,
			Value:     value,
			StartDate: now.Add(-time.Hour),
			EndDate:   now.Add(time.Hour),
			IsActive:  true,
		}
	}

	tests := []struct {
		name      string
		discounts []models.Discount
		wantPrice float64
	}{
		{
			name:      "percentage_discount",
			discounts: []models.Discount{active(models.DiscountPercentage, 10)},
			wantPrice: 90,
		},
		{
			name:      "fixed_discount",
			discounts: []models.Discount{active(models.DiscountFixed, 20)},
			wantPrice: 80,
		},
		{
			name: "expired_window_full_price",
			discounts: []models.Discount{{
				Kind:      models.DiscountPercentage,
				Value:     10,
				StartDate: now.Add(-2 * time.Hour),
				EndDate:   now.Add(-time.Hour),
				IsActive:  true,
			}},
			wantPrice: 100,
		},
		{
			name: "inactive_discount_full_price",
			discounts: []models.Discount{{
				Kind:      models.DiscountPercentage,
				Value:     10,
				StartDate: now.Add(-time.Hour),
				EndDate:   now.Add(time.Hour),
				IsActive:  false,
			}},
			wantPrice: 100,
		},
		{
			name: "only_first_matching_discount_applies",
			discounts: []models.Discount{
				active(models.DiscountPercentage, 10),
				active(models.DiscountFixed, 50),
			},
			wantPrice: 90,
		},
		{
			name: "fixed_discount_floors_at_zero",
			discounts: []models.Discount{
				active(models.DiscountFixed, 150),
			},
			wantPrice: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apples := product("Apples", 100, 10)
			apples.Discounts = tt.discounts
			f := newFixture(apples)

			order, err := f.svc.Create(context.Background(), f.customer, CreateOrderRequest{
				ShopID: f.shop.ID,
				Items:  []OrderItemRequest{{ProductID: apples.ID, Quantity: 1}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, order.Items[0].Price)
			assert.Equal(t, tt.wantPrice, order.Total)
		})
	}
}

func (f *fixture) createOrder(t *testing.T, items ...OrderItemRequest) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), f.customer, CreateOrderRequest{
		ShopID:        f.shop.ID,
		Items:         items,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	return order
}

func TestOrderService_UpdateStatus_HappyPath(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	path := []string{
		models.OrderStatusConfirmed,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	}

	for _, status := range path {
		updated, err := f.svc.UpdateStatus(context.Background(), staff, order.ID, status, "")
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, status, updated.StatusHistory[len(updated.StatusHistory)-1].Status)
	}

	stored := f.orders.orders[order.ID]
	require.Len(t, stored.StatusHistory, 5)
	for i := 1; i < len(stored.StatusHistory); i++ {
		assert.False(t, stored.StatusHistory[i].CreatedAt.Before(stored.StatusHistory[i-1].CreatedAt))
	}
}

func TestOrderService_UpdateStatus_InvalidTransition(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	_, err := f.svc.UpdateStatus(context.Background(), staff, order.ID, models.OrderStatusShipped, "")

	var transitionErr models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.OrderStatusPending, transitionErr.From)
	assert.Equal(t, models.OrderStatusShipped, transitionErr.To)
}

func TestOrderService_UpdateStatus_TerminalStates(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	_, err := f.svc.UpdateStatus(context.Background(), staff, order.ID, models.OrderStatusCancelled, "")
	require.NoError(t, err)

	// cancelled is terminal
	_, err = f.svc.UpdateStatus(context.Background(), staff, order.ID, models.OrderStatusConfirmed, "")
	var transitionErr models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestOrderService_UpdateStatus_MissingStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateStatus(context.Background(), f.staffActor(), uuid.New(), "", "")
	assert.ErrorIs(t, err, models.ErrStatusRequired)
}

func TestOrderService_UpdateStatus_CancelRestoresStock(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()

	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 3})
	require.Equal(t, 7, f.products.products[apples.ID].Stock)

	_, err := f.svc.UpdateStatus(context.Background(), staff, order.ID, models.OrderStatusCancelled, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, 10, f.products.products[apples.ID].Stock)
}

func TestOrderService_UpdateStatus_Authorization(t *testing.T) {
	apples := product("Apples", 100, 10)

	otherShopID := uuid.New()
	deliveryID := uuid.New()

	tests := []struct {
		name    string
		actor   func(f *fixture, order *models.Order) models.Actor
		wantErr error
	}{
		{
			name: "customer_cannot_update",
			actor: func(f *fixture, _ *models.Order) models.Actor {
				return f.customer
			},
			wantErr: models.ErrNotAuthorized,
		},
		{
			name: "other_shop_staff_cannot_update",
			actor: func(_ *fixture, _ *models.Order) models.Actor {
				shopID := otherShopID
				return models.Actor{ID: uuid.New(), Role: models.RoleStaff, ShopID: &shopID}
			},
			wantErr: models.ErrNotAuthorized,
		},
		{
			name: "assigned_delivery_can_update",
			actor: func(f *fixture, order *models.Order) models.Actor {
				f.orders.orders[order.ID].DeliveryPersonnelID = &deliveryID
				return models.Actor{ID: deliveryID, Role: models.RoleDelivery}
			},
		},
		{
			name: "admin_can_update",
			actor: func(_ *fixture, _ *models.Order) models.Actor {
				return models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(apples)
			order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

			actor := tt.actor(f, order)
			_, err := f.svc.UpdateStatus(context.Background(), actor, order.ID, models.OrderStatusConfirmed, "")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderService_Get_Authorization(t *testing.T) {
	apples := product("Apples", 100, 10)
	deliveryID := uuid.New()

	tests := []struct {
		name    string
		actor   func(f *fixture, order *models.Order) models.Actor
		wantErr error
	}{
		{
			name: "owner_can_view",
			actor: func(f *fixture, _ *models.Order) models.Actor {
				return f.customer
			},
		},
		{
			name: "stranger_cannot_view",
			actor: func(_ *fixture, _ *models.Order) models.Actor {
				return models.Actor{ID: uuid.New(), Role: models.RoleCustomer}
			},
			wantErr: models.ErrNotAuthorized,
		},
		{
			name: "unassigned_delivery_cannot_view",
			actor: func(_ *fixture, _ *models.Order) models.Actor {
				return models.Actor{ID: uuid.New(), Role: models.RoleDelivery}
			},
			wantErr: models.ErrNotAuthorized,
		},
		{
			name: "assigned_delivery_can_view",
			actor: func(f *fixture, order *models.Order) models.Actor {
				f.orders.orders[order.ID].DeliveryPersonnelID = &deliveryID
				return models.Actor{ID: deliveryID, Role: models.RoleDelivery}
			},
		},
		{
			name: "shop_staff_can_view",
			actor: func(f *fixture, _ *models.Order) models.Actor {
				return f.staffActor()
			},
		},
		{
			name: "admin_can_view",
			actor: func(_ *fixture, _ *models.Order) models.Actor {
				return models.Actor{ID: uuid.New(), Role: models.RoleAdmin}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(apples)
			order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

			got, err := f.svc.Get(context.Background(), tt.actor(f, order), order.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, order.ID, got.ID)
			}
		})
	}
}

func TestOrderService_List_RoleFilter(t *testing.T) {
	shopID := uuid.New()
	actorID := uuid.New()

	tests := []struct {
		name  string
		actor models.Actor
		req   ListOrdersRequest
		check func(t *testing.T, filter models.OrderFilter)
	}{
		{
			name:  "customer_sees_own_orders",
			actor: models.Actor{ID: actorID, Role: models.RoleCustomer},
			check: func(t *testing.T, filter models.OrderFilter) {
				require.NotNil(t, filter.CustomerID)
				assert.Equal(t, actorID, *filter.CustomerID)
				assert.Nil(t, filter.ShopID)
			},
		},
		{
			name:  "staff_sees_shop_orders",
			actor: models.Actor{ID: actorID, Role: models.RoleStaff, ShopID: &shopID},
			check: func(t *testing.T, filter models.OrderFilter) {
				require.NotNil(t, filter.ShopID)
				assert.Equal(t, shopID, *filter.ShopID)
				assert.Nil(t, filter.CustomerID)
			},
		},
		{
			name:  "delivery_sees_assigned_orders",
			actor: models.Actor{ID: actorID, Role: models.RoleDelivery},
			check: func(t *testing.T, filter models.OrderFilter) {
				require.NotNil(t, filter.DeliveryPersonnelID)
				assert.Equal(t, actorID, *filter.DeliveryPersonnelID)
			},
		},
		{
			name:  "admin_unfiltered",
			actor: models.Actor{ID: actorID, Role: models.RoleAdmin},
			check: func(t *testing.T, filter models.OrderFilter) {
				assert.Nil(t, filter.CustomerID)
				assert.Nil(t, filter.ShopID)
				assert.Nil(t, filter.DeliveryPersonnelID)
			},
		},
		{
			name:  "admin_explicit_shop_filter",
			actor: models.Actor{ID: actorID, Role: models.RoleAdmin},
			req:   ListOrdersRequest{ShopID: &shopID},
			check: func(t *testing.T, filter models.OrderFilter) {
				require.NotNil(t, filter.ShopID)
				assert.Equal(t, shopID, *filter.ShopID)
			},
		},
		{
			name:  "customer_shop_filter_ignored",
			actor: models.Actor{ID: actorID, Role: models.RoleCustomer},
			req:   ListOrdersRequest{ShopID: &shopID},
			check: func(t *testing.T, filter models.OrderFilter) {
				assert.Nil(t, filter.ShopID)
			},
		},
		{
			name:  "pagination_defaults",
			actor: models.Actor{ID: actorID, Role: models.RoleAdmin},
			check: func(t *testing.T, filter models.OrderFilter) {
				assert.Equal(t, 1, filter.Page)
				assert.Equal(t, 10, filter.Limit)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, _, err := f.svc.List(context.Background(), tt.actor, tt.req)
			require.NoError(t, err)
			tt.check(t, f.orders.lastFilter)
		})
	}
}

func TestOrderService_AssignDelivery(t *testing.T) {
	apples := product("Apples", 100, 10)

	courier := &models.User{ID: uuid.New(), Name: "Pat", Role: models.RoleDelivery, IsActive: true}
	notCourier := &models.User{ID: uuid.New(), Name: "Sam", Role: models.RoleCustomer, IsActive: true}

	tests := []struct {
		name         string
		personnelID  func(f *fixture) uuid.UUID
		deliveryType string
		onRoster     bool
		actor        func(f *fixture) models.Actor
		wantErr      error
	}{
		{
			name:         "shop_delivery_on_roster",
			personnelID:  func(*fixture) uuid.UUID { return courier.ID },
			deliveryType: models.DeliveryTypeShop,
			onRoster:     true,
		},
		{
			name:         "shop_delivery_off_roster",
			personnelID:  func(*fixture) uuid.UUID { return courier.ID },
			deliveryType: models.DeliveryTypeShop,
			wantErr:      models.ErrNotShopDelivery,
		},
		{
			name:         "global_delivery_skips_roster",
			personnelID:  func(*fixture) uuid.UUID { return courier.ID },
			deliveryType: models.DeliveryTypeGlobal,
		},
		{
			name:         "user_not_found",
			personnelID:  func(*fixture) uuid.UUID { return uuid.New() },
			deliveryType: models.DeliveryTypeGlobal,
			wantErr:      models.ErrUserNotFound,
		},
		{
			name:         "not_a_delivery_person",
			personnelID:  func(*fixture) uuid.UUID { return notCourier.ID },
			deliveryType: models.DeliveryTypeGlobal,
			wantErr:      models.ErrNotDeliveryPersonnel,
		},
		{
			name:         "invalid_delivery_type",
			personnelID:  func(*fixture) uuid.UUID { return courier.ID },
			deliveryType: "drone",
			wantErr:      models.ErrInvalidDeliveryType,
		},
		{
			name:         "customer_cannot_assign",
			personnelID:  func(*fixture) uuid.UUID { return courier.ID },
			deliveryType: models.DeliveryTypeGlobal,
			actor:        func(f *fixture) models.Actor { return f.customer },
			wantErr:      models.ErrNotAuthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(apples)
			f.users.users[courier.ID] = courier
			f.users.users[notCourier.ID] = notCourier
			if tt.onRoster {
				f.shops.roster[f.shop.ID] = []uuid.UUID{courier.ID}
			}

			order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

			actor := f.staffActor()
			if tt.actor != nil {
				actor = tt.actor(f)
			}

			updated, err := f.svc.AssignDelivery(context.Background(), actor, order.ID, tt.personnelID(f), tt.deliveryType)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, updated.DeliveryPersonnelID)
			assert.Equal(t, tt.personnelID(f), *updated.DeliveryPersonnelID)
			assert.Equal(t, tt.deliveryType, updated.DeliveryType)

			// assignment leaves no status history entry
			assert.Len(t, f.orders.orders[order.ID].StatusHistory, 1)
		})
	}
}

func TestOrderService_AssignDelivery_MissingFields(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AssignDelivery(context.Background(), f.staffActor(), uuid.New(), uuid.Nil, "")
	assert.ErrorIs(t, err, models.ErrDeliveryAssignRequired)
}

func TestOrderService_UpdatePayment(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	updated, err := f.svc.UpdatePayment(context.Background(), staff, order.ID, PaymentUpdateRequest{
		PaymentStatus: models.PaymentStatusPaid,
		TransactionID: "tx-1",
		Provider:      "stripe",
		Amount:        100,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.PaymentDetails)
	assert.Equal(t, "tx-1", updated.PaymentDetails.TransactionID)
	// date defaults to now when not supplied
	assert.False(t, updated.PaymentDetails.Date.IsZero())
}

func TestOrderService_UpdatePayment_Idempotent(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	req := PaymentUpdateRequest{
		PaymentStatus: models.PaymentStatusPaid,
		TransactionID: "tx-1",
		Date:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	_, err := f.svc.UpdatePayment(context.Background(), staff, order.ID, req)
	require.NoError(t, err)
	historyLen := len(f.orders.orders[order.ID].StatusHistory)

	// re-applying the same update is accepted and leaves history alone
	updated, err := f.svc.UpdatePayment(context.Background(), staff, order.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Len(t, f.orders.orders[order.ID].StatusHistory, historyLen)
}

func TestOrderService_UpdatePayment_NotLinkedToOrderStatus(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	staff := f.staffActor()
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	_, err := f.svc.UpdateStatus(context.Background(), staff, order.ID, models.OrderStatusCancelled, "")
	require.NoError(t, err)

	// a cancelled order can still be marked paid
	updated, err := f.svc.UpdatePayment(context.Background(), staff, order.ID, PaymentUpdateRequest{
		PaymentStatus: models.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
}

func TestOrderService_UpdatePayment_MissingStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdatePayment(context.Background(), f.staffActor(), uuid.New(), PaymentUpdateRequest{})
	assert.ErrorIs(t, err, models.ErrPaymentStatusRequired)
}

func TestOrderService_UpdatePayment_Authorization(t *testing.T) {
	apples := product("Apples", 100, 10)
	f := newFixture(apples)
	order := f.createOrder(t, OrderItemRequest{ProductID: apples.ID, Quantity: 1})

	deliveryID := uuid.New()
	f.orders.orders[order.ID].DeliveryPersonnelID = &deliveryID

	// the assigned delivery person may update status but not payment
	_, err := f.svc.UpdatePayment(context.Background(),
		models.Actor{ID: deliveryID, Role: models.RoleDelivery},
		order.ID,
		PaymentUpdateRequest{PaymentStatus: models.PaymentStatusPaid})
	assert.ErrorIs(t, err, models.ErrNotAuthorized)
}

func TestOrderService_Get_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(context.Background(), f.customer, uuid.New())
	assert.True(t, errors.Is(err, models.ErrOrderNotFound))
}
