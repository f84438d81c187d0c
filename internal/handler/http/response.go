package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vendora/vendora/internal/models"
)

// envelope is the response contract: status is success, fail (client
// error) or error (server error)
type envelope struct {
	Status      string `json:"status"`
	Data        any    `json:"data,omitempty"`
	Message     string `json:"message,omitempty"`
	Results     *int   `json:"results,omitempty"`
	TotalPages  *int   `json:"totalPages,omitempty"`
	CurrentPage *int   `json:"currentPage,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Status: "success", Data: data})
}

func writeFail(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Status: "fail", Message: message})
}

// writeError maps a service error to the HTTP envelope
func writeError(w http.ResponseWriter, err error) {
	var (
		productNotFound   models.ProductNotFoundError
		productNotActive  models.ProductNotActiveError
		insufficientStock models.InsufficientStockError
		invalidTransition models.InvalidTransitionError
	)

	switch {
	case errors.Is(err, models.ErrNoOrderItems),
		errors.Is(err, models.ErrShopIDRequired),
		errors.Is(err, models.ErrStatusRequired),
		errors.Is(err, models.ErrShopNotActive),
		errors.Is(err, models.ErrNotDeliveryPersonnel),
		errors.Is(err, models.ErrNotShopDelivery),
		errors.Is(err, models.ErrDeliveryAssignRequired),
		errors.Is(err, models.ErrInvalidDeliveryType),
		errors.Is(err, models.ErrPaymentStatusRequired),
		errors.As(err, &productNotActive),
		errors.As(err, &insufficientStock),
		errors.As(err, &invalidTransition):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrShopNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrDataNotFound),
		errors.As(err, &productNotFound):
		writeFail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrNotAuthorized):
		writeFail(w, http.StatusForbidden, err.Error())
	default:
		writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Message: err.Error()})
	}
}

type refResp struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type orderItemResp struct {
	Product    string  `json:"product"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	TotalPrice float64 `json:"totalPrice"`
}

type statusHistoryResp struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Note      string `json:"note,omitempty"`
	UpdatedBy string `json:"updatedBy"`
}

type shippingAddressResp struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type paymentDetailsResp struct {
	TransactionID string  `json:"transactionId,omitempty"`
	Provider      string  `json:"provider,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Date          string  `json:"date,omitempty"`
}

type scheduledDeliveryResp struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot,omitempty"`
}

type orderResp struct {
	ID                string                 `json:"id"`
	OrderNumber       string                 `json:"orderNumber"`
	Customer          refResp                `json:"customer"`
	Shop              refResp                `json:"shop"`
	Items             []orderItemResp        `json:"items"`
	Subtotal          float64                `json:"subtotal"`
	Tax               float64                `json:"tax"`
	DeliveryFee       float64                `json:"deliveryFee"`
	Discount          float64                `json:"discount"`
	Total             float64                `json:"total"`
	PaymentMethod     string                 `json:"paymentMethod"`
	PaymentStatus     string                 `json:"paymentStatus"`
	PaymentDetails    *paymentDetailsResp    `json:"paymentDetails,omitempty"`
	Status            string                 `json:"status"`
	StatusHistory     []statusHistoryResp    `json:"statusHistory,omitempty"`
	ShippingAddress   *shippingAddressResp   `json:"shippingAddress,omitempty"`
	DeliveryPersonnel *refResp               `json:"deliveryPersonnel,omitempty"`
	DeliveryType      string                 `json:"deliveryType"`
	ScheduledDelivery *scheduledDeliveryResp `json:"scheduledDelivery,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
	CreatedAt         string                 `json:"createdAt"`
	UpdatedAt         string                 `json:"updatedAt"`
}

func toOrderResp(order *models.Order) orderResp {
	resp := orderResp{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		Customer:      refResp{ID: order.CustomerID.String(), Name: order.CustomerName},
		Shop:          refResp{ID: order.ShopID.String(), Name: order.ShopName},
		Items:         []orderItemResp{},
		Subtotal:      order.Subtotal,
		Tax:           order.Tax,
		DeliveryFee:   order.DeliveryFee,
		Discount:      order.Discount,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
		DeliveryType:  order.DeliveryType,
		Notes:         order.Notes,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     order.UpdatedAt.Format(time.RFC3339),
	}

	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResp{
			Product:    item.ProductID.String(),
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TotalPrice: item.TotalPrice,
		})
	}

	for _, entry := range order.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, statusHistoryResp{
			Status:    entry.Status,
			Timestamp: entry.CreatedAt.Format(time.RFC3339),
			Note:      entry.Note,
			UpdatedBy: entry.UpdatedBy.String(),
		})
	}

	if order.PaymentDetails != nil {
		details := paymentDetailsResp{
			TransactionID: order.PaymentDetails.TransactionID,
			Provider:      order.PaymentDetails.Provider,
			Amount:        order.PaymentDetails.Amount,
		}
		if !order.PaymentDetails.Date.IsZero() {
			details.Date = order.PaymentDetails.Date.Format(time.RFC3339)
		}
		resp.PaymentDetails = &details
	}

	if order.ShippingAddress != nil {
		resp.ShippingAddress = &shippingAddressResp{
			Street:  order.ShippingAddress.Street,
			City:    order.ShippingAddress.City,
			State:   order.ShippingAddress.State,
			ZipCode: order.ShippingAddress.ZipCode,
			Country: order.ShippingAddress.Country,
		}
	}

	if order.DeliveryPersonnelID != nil {
		resp.DeliveryPersonnel = &refResp{
			ID:   order.DeliveryPersonnelID.String(),
			Name: order.DeliveryPersonnelName,
		}
	}

	if order.ScheduledDelivery != nil {
		resp.ScheduledDelivery = &scheduledDeliveryResp{
			Date:     order.ScheduledDelivery.Date.Format(time.RFC3339),
			TimeSlot: order.ScheduledDelivery.TimeSlot,
		}
	}

	return resp
}
