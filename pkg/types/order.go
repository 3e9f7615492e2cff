package types

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is an immutable line snapshot taken when the order is placed.
type OrderItem struct {
	Product       uuid.UUID `json:"product"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	DiscountPrice float64   `json:"discountPrice"`
	OriginalPrice float64   `json:"originalPrice"`
	ShippingCost  float64   `json:"shippingCost"`
	Image         string    `json:"image"`
	Filters       Selection `json:"filters"`
}

// PriceSummary totals an order.
type PriceSummary struct {
	Subtotal     float64 `json:"subtotal"`
	Savings      float64 `json:"savings"`
	ShippingCost float64 `json:"shippingCost"`
	Total        float64 `json:"total"`
}

// StatusTimestamps records when each lifecycle status was entered.
type StatusTimestamps struct {
	ProcessedAt      *time.Time `json:"processedAt,omitempty"`
	ShippedAt        *time.Time `json:"shippedAt,omitempty"`
	OutForDeliveryAt *time.Time `json:"outForDeliveryAt,omitempty"`
	DeliveredAt      *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
	ReturnAcceptedAt *time.Time `json:"returnAcceptedAt,omitempty"`
	ReturnedAt       *time.Time `json:"returnedAt,omitempty"`
	RefundAcceptedAt *time.Time `json:"refundAcceptedAt,omitempty"`
	RefundedAt       *time.Time `json:"refundedAt,omitempty"`
}
