package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order and its stock decrements commit.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	UserID        uuid.UUID           `json:"userId"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	ItemCount     int                 `json:"itemCount"`
	Total         float64             `json:"total"`
}

// OrderStatusChangedEvent is emitted by administrative status updates.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	FromStatus enums.OrderStatus `json:"fromStatus"`
	ToStatus   enums.OrderStatus `json:"toStatus"`
	IsPaid     bool              `json:"isPaid"`
}

// OrderCancelledEvent is emitted after stock has been restored.
type OrderCancelledEvent struct {
	OrderID      uuid.UUID           `json:"orderId"`
	UserID       uuid.UUID           `json:"userId"`
	Reason       string              `json:"reason"`
	PaymentState enums.PaymentStatus `json:"paymentStatus"`
}

// PaymentVerifiedEvent is emitted when a gateway signature checks out.
type PaymentVerifiedEvent struct {
	OrderID           uuid.UUID `json:"orderId"`
	RazorpayOrderID   string    `json:"razorpayOrderId"`
	RazorpayPaymentID string    `json:"razorpayPaymentId"`
	PaidAt            time.Time `json:"paidAt"`
}
