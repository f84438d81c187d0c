package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vendora/vendora/internal/models"
	"github.com/vendora/vendora/internal/service"
)

// OrderService is the order engine surface consumed by the HTTP layer
type OrderService interface {
	Create(ctx context.Context, actor models.Actor, req service.CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor models.Actor, req service.ListOrdersRequest) ([]models.Order, int, error)
	UpdateStatus(ctx context.Context, actor models.Actor, orderID uuid.UUID, status, note string) (*models.Order, error)
	AssignDelivery(ctx context.Context, actor models.Actor, orderID, deliveryPersonnelID uuid.UUID, deliveryType string) (*models.Order, error)
	UpdatePayment(ctx context.Context, actor models.Actor, orderID uuid.UUID, req service.PaymentUpdateRequest) (*models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type shippingAddressReq struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type scheduledDeliveryReq struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

type createOrderReq struct {
	ShopID            string                `json:"shopId"`
	Items             []createOrderItemReq  `json:"items"`
	ShippingAddress   *shippingAddressReq   `json:"shippingAddress"`
	PaymentMethod     string                `json:"paymentMethod"`
	DeliveryFee       float64               `json:"deliveryFee"`
	ScheduledDelivery *scheduledDeliveryReq `json:"scheduledDelivery"`
	Notes             string                `json:"notes"`
}

// CreateOrder creates new order
// 201 — order created
// 400 — validation failure, inactive shop/product or insufficient stock
// 401 — not authenticated
// 404 — shop or product not found
// 500 — internal server error
func (oh *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		var req createOrderReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		if len(req.Items) == 0 {
			writeFail(w, http.StatusBadRequest, models.ErrNoOrderItems.Error())
			return
		}
		if req.ShopID == "" {
			writeFail(w, http.StatusBadRequest, models.ErrShopIDRequired.Error())
			return
		}

		shopID, err := uuid.Parse(req.ShopID)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "invalid shop id")
			return
		}

		createReq := service.CreateOrderRequest{
			ShopID:        shopID,
			PaymentMethod: req.PaymentMethod,
			DeliveryFee:   req.DeliveryFee,
			Notes:         req.Notes,
		}

		for _, item := range req.Items {
			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "invalid product id")
				return
			}
			createReq.Items = append(createReq.Items, service.OrderItemRequest{
				ProductID: productID,
				Quantity:  item.Quantity,
			})
		}

		if req.ShippingAddress != nil {
			createReq.ShippingAddress = &models.ShippingAddress{
				Street:  req.ShippingAddress.Street,
				City:    req.ShippingAddress.City,
				State:   req.ShippingAddress.State,
				ZipCode: req.ShippingAddress.ZipCode,
				Country: req.ShippingAddress.Country,
			}
		}

		if req.ScheduledDelivery != nil {
			date, err := parseDate(req.ScheduledDelivery.Date)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "invalid scheduled delivery date")
				return
			}
			createReq.ScheduledDelivery = &models.ScheduledDelivery{
				Date:     date,
				TimeSlot: req.ScheduledDelivery.TimeSlot,
			}
		}

		order, err := oh.svc.Create(r.Context(), actor, createReq)
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusCreated, toOrderResp(order))
	}
}

// ListOrders returns orders filtered by actor role with pagination
// 200 — page of orders
// 400 — malformed filter
// 401 — not authenticated
// 500 — internal server error
func (oh *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		query := r.URL.Query()

		req := service.ListOrdersRequest{
			Status: query.Get("status"),
		}

		if page, err := strconv.Atoi(query.Get("page")); err == nil {
			req.Page = page
		}
		if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
			req.Limit = limit
		}

		if shop := query.Get("shop"); shop != "" {
			shopID, err := uuid.Parse(shop)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "invalid shop id")
				return
			}
			req.ShopID = &shopID
		}

		if start := query.Get("startDate"); start != "" {
			date, err := parseDate(start)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "invalid start date")
				return
			}
			req.StartDate = &date
		}
		if end := query.Get("endDate"); end != "" {
			date, err := parseDate(end)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "invalid end date")
				return
			}
			req.EndDate = &date
		}

		orders, total, err := oh.svc.List(r.Context(), actor, req)
		if err != nil {
			writeError(w, err)
			return
		}

		limit := req.Limit
		if limit < 1 {
			limit = 10
		}
		page := req.Page
		if page < 1 {
			page = 1
		}

		results := len(orders)
		totalPages := (total + limit - 1) / limit

		data := make([]orderResp, 0, len(orders))
		for i := range orders {
			data = append(data, toOrderResp(&orders[i]))
		}

		writeJSON(w, http.StatusOK, envelope{
			Status:      "success",
			Data:        data,
			Results:     &results,
			TotalPages:  &totalPages,
			CurrentPage: &page,
		})
	}
}

// GetOrder returns one order by id
// 200 — order
// 401 — not authenticated
// 403 — actor may not view this order
// 404 — order not found
// 500 — internal server error
func (oh *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFail(w, http.StatusNotFound, models.ErrOrderNotFound.Error())
			return
		}

		order, err := oh.svc.Get(r.Context(), actor, orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, toOrderResp(order))
	}
}

type updateStatusReq struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// UpdateOrderStatus transitions the order lifecycle status
// 200 — status updated
// 400 — missing status or invalid transition
// 401 — not authenticated
// 403 — actor may not update this order
// 404 — order not found
// 500 — internal server error
func (oh *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFail(w, http.StatusNotFound, models.ErrOrderNotFound.Error())
			return
		}

		var req updateStatusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.UpdateStatus(r.Context(), actor, orderID, req.Status, req.Note)
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, toOrderResp(order))
	}
}

type assignDeliveryReq struct {
	DeliveryPersonnelID string `json:"deliveryPersonnelId"`
	DeliveryType        string `json:"deliveryType"`
}

// AssignDelivery assigns delivery personnel to the order
// 200 — delivery assigned
// 400 — missing fields, wrong role or not on the shop roster
// 401 — not authenticated
// 403 — actor may not assign delivery for this order
// 404 — order, shop or user not found
// 500 — internal server error
func (oh *OrderHandler) AssignDelivery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFail(w, http.StatusNotFound, models.ErrOrderNotFound.Error())
			return
		}

		var req assignDeliveryReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		if req.DeliveryPersonnelID == "" || req.DeliveryType == "" {
			writeFail(w, http.StatusBadRequest, models.ErrDeliveryAssignRequired.Error())
			return
		}

		deliveryPersonnelID, err := uuid.Parse(req.DeliveryPersonnelID)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "invalid delivery personnel id")
			return
		}

		order, err := oh.svc.AssignDelivery(r.Context(), actor, orderID, deliveryPersonnelID, req.DeliveryType)
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, toOrderResp(order))
	}
}

type paymentDetailsReq struct {
	TransactionID string  `json:"transactionId"`
	Provider      string  `json:"provider"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
}

type updatePaymentReq struct {
	PaymentStatus  string             `json:"paymentStatus"`
	PaymentDetails *paymentDetailsReq `json:"paymentDetails"`
}

// UpdatePayment sets the payment status and merges payment details
// 200 — payment updated
// 400 — missing payment status
// 401 — not authenticated
// 403 — actor may not update payment for this order
// 404 — order not found
// 500 — internal server error
func (oh *OrderHandler) UpdatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeFail(w, http.StatusNotFound, models.ErrOrderNotFound.Error())
			return
		}

		var req updatePaymentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		defer r.Body.Close()

		updateReq := service.PaymentUpdateRequest{
			PaymentStatus: req.PaymentStatus,
		}
		if req.PaymentDetails != nil {
			updateReq.TransactionID = req.PaymentDetails.TransactionID
			updateReq.Provider = req.PaymentDetails.Provider
			updateReq.Amount = req.PaymentDetails.Amount
			if req.PaymentDetails.Date != "" {
				date, err := parseDate(req.PaymentDetails.Date)
				if err != nil {
					writeFail(w, http.StatusBadRequest, "invalid payment date")
					return
				}
				updateReq.Date = date
			}
		}

		order, err := oh.svc.UpdatePayment(r.Context(), actor, orderID, updateReq)
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, toOrderResp(order))
	}
}

// parseDate accepts RFC3339 timestamps and bare dates
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
