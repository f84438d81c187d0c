package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vendora/vendora/internal/models"
	"github.com/vendora/vendora/internal/repository/postgres"
)

const (
	nextOrderCounterQuery = `
						UPDATE counters SET value = value + 1
						WHERE name = 'order_number'
						RETURNING value
`
	insertOrderQuery = `
						INSERT INTO orders (id, order_number, customer_id, shop_id, subtotal, tax, delivery_fee, discount, total,
											payment_method, payment_status, status,
											shipping_street, shipping_city, shipping_state, shipping_zip_code, shipping_country,
											delivery_type, scheduled_date, scheduled_time_slot, notes)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
						RETURNING created_at, updated_at
`
	insertOrderItemQuery = `
						INSERT INTO order_items (id, order_id, product_id, name, quantity, price, total_price)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	insertStatusHistoryQuery = `
						INSERT INTO order_status_history (order_id, status, note, updated_by)
						VALUES ($1, $2, $3, $4)
						RETURNING id, created_at
`
	insertOrderEventQuery = `
						INSERT INTO order_events (order_id, event_type, payload)
						VALUES ($1, $2, $3)
`
	selectOrderByIDQuery = `
						SELECT o.id, o.order_number, o.customer_id, o.shop_id, o.subtotal, o.tax, o.delivery_fee, o.discount, o.total,
							   o.payment_method, o.payment_status, o.payment_transaction_id, o.payment_provider, o.payment_amount, o.payment_date,
							   o.status, o.shipping_street, o.shipping_city, o.shipping_state, o.shipping_zip_code, o.shipping_country,
							   o.delivery_personnel_id, o.delivery_type, o.scheduled_date, o.scheduled_time_slot, o.notes,
							   o.created_at, o.updated_at,
							   c.name, s.name, COALESCE(d.name, '')
						FROM orders o
						JOIN users c ON c.id = o.customer_id
						JOIN shops s ON s.id = o.shop_id
						LEFT JOIN users d ON d.id = o.delivery_personnel_id
						WHERE o.id = $1
`
	selectOrderItemsQuery = `
						SELECT id, order_id, product_id, name, quantity, price, total_price FROM order_items
						WHERE order_id = $1
`
	selectStatusHistoryQuery = `
						SELECT id, order_id, status, note, updated_by, created_at FROM order_status_history
						WHERE order_id = $1
						ORDER BY created_at, id
`
	updateOrderStatusQuery = `
						UPDATE orders
						SET status = $1, updated_at = now()
						WHERE id = $2
`
	updateOrderDeliveryQuery = `
						UPDATE orders
						SET delivery_personnel_id = $1, delivery_type = $2, updated_at = now()
						WHERE id = $3
`
	updateOrderPaymentQuery = `
						UPDATE orders
						SET payment_status = $1, payment_transaction_id = $2, payment_provider = $3,
							payment_amount = $4, payment_date = $5, updated_at = now()
						WHERE id = $6
`
)

// orderEventPayload is the outbox message body
type orderEventPayload struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Status      string  `json:"status"`
	Total       float64 `json:"total"`
}

// OrderRepository implements order persistence over postgres
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder assigns the order number and inserts the order aggregate in
// a single transaction: counter bump, order row, items, initial status
// history entry and the order_created outbox event.
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := or.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var counter int64
	if err := tx.QueryRow(ctx, nextOrderCounterQuery).Scan(&counter); err != nil {
		return nil, fmt.Errorf("next order counter: %w", err)
	}

	order.ID = uuid.New()
	order.OrderNumber = models.FormatOrderNumber(time.Now(), counter)

	var addr models.ShippingAddress
	if order.ShippingAddress != nil {
		addr = *order.ShippingAddress
	}

	var schedDate *time.Time
	var schedSlot *string
	if order.ScheduledDelivery != nil {
		schedDate = &order.ScheduledDelivery.Date
		schedSlot = &order.ScheduledDelivery.TimeSlot
	}

	err = tx.QueryRow(ctx, insertOrderQuery,
		order.ID, order.OrderNumber, order.CustomerID, order.ShopID,
		order.Subtotal, order.Tax, order.DeliveryFee, order.Discount, order.Total,
		order.PaymentMethod, order.PaymentStatus, order.Status,
		addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country,
		order.DeliveryType, schedDate, schedSlot, order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		if _, err := tx.Exec(ctx, insertOrderItemQuery,
			item.ID, item.OrderID, item.ProductID, item.Name, item.Quantity, item.Price, item.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	for i := range order.StatusHistory {
		entry := &order.StatusHistory[i]
		entry.OrderID = order.ID
		if err := tx.QueryRow(ctx, insertStatusHistoryQuery,
			entry.OrderID, entry.Status, entry.Note, entry.UpdatedBy,
		).Scan(&entry.ID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert status history: %w", err)
		}
	}

	if err := or.insertEvent(ctx, tx, order, models.EventOrderCreated); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

// GetOrderByID returns the order aggregate with resolved display names,
// items and status history
func (or *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order := models.Order{}
	addr := models.ShippingAddress{}

	var (
		street, city, state, zipCode, country *string
		txID, provider                        *string
		amount                                *float64
		payDate, schedDate                    *time.Time
		schedSlot                             *string
	)

	err := or.db.QueryRow(ctx, selectOrderByIDQuery, id).Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.ShopID,
		&order.Subtotal, &order.Tax, &order.DeliveryFee, &order.Discount, &order.Total,
		&order.PaymentMethod, &order.PaymentStatus, &txID, &provider, &amount, &payDate,
		&order.Status, &street, &city, &state, &zipCode, &country,
		&order.DeliveryPersonnelID, &order.DeliveryType, &schedDate, &schedSlot, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt,
		&order.CustomerName, &order.ShopName, &order.DeliveryPersonnelName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}

	if street != nil {
		addr.Street, addr.City, addr.State, addr.ZipCode, addr.Country =
			deref(street), deref(city), deref(state), deref(zipCode), deref(country)
		order.ShippingAddress = &addr
	}
	if txID != nil || provider != nil || amount != nil || payDate != nil {
		details := models.PaymentDetails{
			TransactionID: deref(txID),
			Provider:      deref(provider),
		}
		if amount != nil {
			details.Amount = *amount
		}
		if payDate != nil {
			details.Date = *payDate
		}
		order.PaymentDetails = &details
	}
	if schedDate != nil {
		order.ScheduledDelivery = &models.ScheduledDelivery{
			Date:     *schedDate,
			TimeSlot: deref(schedSlot),
		}
	}

	items, err := or.getOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	history, err := or.getStatusHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	order.StatusHistory = history

	return &order, nil
}

// ListOrders returns a page of orders matching the filter plus the total
// match count. Items and history are not loaded for listings.
func (or *OrderRepository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	where := ""
	args := []any{}

	and := func(cond string, arg any) {
		args = append(args, arg)
		if where == "" {
			where = "WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}

	if filter.CustomerID != nil {
		and("o.customer_id = $%d", *filter.CustomerID)
	}
	if filter.ShopID != nil {
		and("o.shop_id = $%d", *filter.ShopID)
	}
	if filter.DeliveryPersonnelID != nil {
		and("o.delivery_personnel_id = $%d", *filter.DeliveryPersonnelID)
	}
	if filter.Status != "" {
		and("o.status = $%d", filter.Status)
	}
	if filter.StartDate != nil {
		and("o.created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		and("o.created_at <= $%d", *filter.EndDate)
	}

	countQuery := "SELECT count(*) FROM orders o " + where

	var total int
	if err := or.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.order_number, o.customer_id, o.shop_id, o.subtotal, o.tax, o.delivery_fee, o.discount, o.total,
			   o.payment_method, o.payment_status, o.status, o.delivery_personnel_id, o.delivery_type, o.notes,
			   o.created_at, o.updated_at,
			   c.name, s.name, COALESCE(d.name, '')
		FROM orders o
		JOIN users c ON c.id = o.customer_id
		JOIN shops s ON s.id = o.shop_id
		LEFT JOIN users d ON d.id = o.delivery_personnel_id
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	rows, err := or.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order := models.Order{}
		err = rows.Scan(
			&order.ID, &order.OrderNumber, &order.CustomerID, &order.ShopID,
			&order.Subtotal, &order.Tax, &order.DeliveryFee, &order.Discount, &order.Total,
			&order.PaymentMethod, &order.PaymentStatus, &order.Status,
			&order.DeliveryPersonnelID, &order.DeliveryType, &order.Notes,
			&order.CreatedAt, &order.UpdatedAt,
			&order.CustomerName, &order.ShopName, &order.DeliveryPersonnelName,
		)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateOrderStatus sets the new status and appends the history entry and
// the status_changed outbox event in one transaction
func (or *OrderRepository) UpdateOrderStatus(ctx context.Context, order *models.Order, status, note string, updatedBy uuid.UUID) error {
	tx, err := or.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, updateOrderStatusQuery, status, order.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}

	entry := models.StatusHistoryEntry{
		OrderID:   order.ID,
		Status:    status,
		Note:      note,
		UpdatedBy: updatedBy,
	}
	if err := tx.QueryRow(ctx, insertStatusHistoryQuery,
		entry.OrderID, entry.Status, entry.Note, entry.UpdatedBy,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	order.Status = status
	order.StatusHistory = append(order.StatusHistory, entry)

	if err := or.insertEvent(ctx, tx, order, models.EventOrderStatusChanged); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update status: %w", err)
	}

	return nil
}

// UpdateOrderDelivery sets the assigned delivery personnel and type
func (or *OrderRepository) UpdateOrderDelivery(ctx context.Context, orderID, deliveryPersonnelID uuid.UUID, deliveryType string) error {
	cmd, err := or.db.Exec(ctx, updateOrderDeliveryQuery, deliveryPersonnelID, deliveryType, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// UpdateOrderPayment sets the payment status and merged payment details
func (or *OrderRepository) UpdateOrderPayment(ctx context.Context, orderID uuid.UUID, paymentStatus string, details *models.PaymentDetails) error {
	var txID, provider *string
	var amount *float64
	var date *time.Time
	if details != nil {
		if details.TransactionID != "" {
			txID = &details.TransactionID
		}
		if details.Provider != "" {
			provider = &details.Provider
		}
		if details.Amount != 0 {
			amount = &details.Amount
		}
		if !details.Date.IsZero() {
			date = &details.Date
		}
	}

	cmd, err := or.db.Exec(ctx, updateOrderPaymentQuery, paymentStatus, txID, provider, amount, date, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

func (or *OrderRepository) insertEvent(ctx context.Context, tx pgx.Tx, order *models.Order, eventType string) error {
	payload, err := json.Marshal(orderEventPayload{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Total:       order.Total,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if _, err := tx.Exec(ctx, insertOrderEventQuery, order.ID, eventType, payload); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

func (or *OrderRepository) getOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := or.db.Query(ctx, selectOrderItemsQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}

	for rows.Next() {
		item := models.OrderItem{}
		err = rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.TotalPrice)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (or *OrderRepository) getStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusHistoryEntry, error) {
	rows, err := or.db.Query(ctx, selectStatusHistoryQuery, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.StatusHistoryEntry{}

	for rows.Next() {
		entry := models.StatusHistoryEntry{}
		err = rows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Note, &entry.UpdatedBy, &entry.CreatedAt)
		if err != nil {
			continue
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
