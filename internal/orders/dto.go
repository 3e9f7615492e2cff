package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// CreateOrderRequest is the checkout payload. Prices in it are advisory; line
// prices and the summary are recomputed from the catalog.
type CreateOrderRequest struct {
	PersonalInfo  types.PersonalInfo  `json:"personalInfo" validate:"required"`
	OrderItems    []OrderItemRequest  `json:"orderItems" validate:"required,min=1,dive"`
	ShippingInfo  types.ShippingInfo  `json:"shippingInfo" validate:"required"`
	PaymentMethod string              `json:"paymentMethod" validate:"required,oneof=razorpay cod"`
	PriceSummary  *types.PriceSummary `json:"priceSummary,omitempty"`
	PaymentInfo   *PaymentInfoRequest `json:"paymentInfo,omitempty"`
}

type OrderItemRequest struct {
	Product  string          `json:"product" validate:"required,uuid"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	Filters  types.Selection `json:"filters"`
}

// PaymentInfoRequest carries gateway references collected client-side.
type PaymentInfoRequest struct {
	Status            string `json:"status"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

// UpdateStatusRequest is the admin update body; nil fields are left unchanged.
type UpdateStatusRequest struct {
	OrderStatus *string `json:"orderStatus"`
	IsPaid      *bool   `json:"isPaid"`
}

type CancelRequest struct {
	CancelReason string `json:"cancelReason" validate:"max=500"`
}

// Customer is the contact summary attached to admin and detail views.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id" json:"_id"`
	FirstName string    `gorm:"column:first_name" json:"firstName"`
	LastName  string    `gorm:"column:last_name" json:"lastName"`
	Email     string    `gorm:"column:email" json:"email"`
}

// OrderView is an order with its customer populated.
type OrderView struct {
	models.Order
	Customer *Customer `json:"customer,omitempty"`
}

type CreateOrderResult struct {
	Message string    `json:"message"`
	OrderID uuid.UUID `json:"orderId"`
}
