package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// PaymentInfo holds gateway references and payment state for an order.
type PaymentInfo struct {
	Method            enums.PaymentMethod `gorm:"column:method;not null" json:"method"`
	RazorpayOrderID   *string             `gorm:"column:razorpay_order_id;index" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID *string             `gorm:"column:razorpay_payment_id" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature *string             `gorm:"column:razorpay_signature" json:"razorpaySignature,omitempty"`
	Status            enums.PaymentStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	PaidAt            *time.Time          `gorm:"column:paid_at" json:"paidAt,omitempty"`
}

// Order is an immutable purchase snapshot plus its mutable lifecycle fields.
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index" json:"user"`
	PersonalInfo     types.PersonalInfo     `gorm:"column:personal_info;type:jsonb;serializer:json;not null" json:"personalInfo"`
	OrderItems       []types.OrderItem      `gorm:"column:order_items;type:jsonb;serializer:json;not null" json:"orderItems"`
	ShippingInfo     types.ShippingInfo     `gorm:"column:shipping_info;type:jsonb;serializer:json;not null" json:"shippingInfo"`
	PaymentInfo      PaymentInfo            `gorm:"embedded;embeddedPrefix:payment_" json:"paymentInfo"`
	PriceSummary     types.PriceSummary     `gorm:"column:price_summary;type:jsonb;serializer:json;not null" json:"priceSummary"`
	OrderStatus      enums.OrderStatus      `gorm:"column:order_status;not null;default:'processing'" json:"orderStatus"`
	StatusTimestamps types.StatusTimestamps `gorm:"column:status_timestamps;type:jsonb;serializer:json;not null" json:"statusTimestamps"`
	IsPaid           bool                   `gorm:"column:is_paid;not null;default:false" json:"isPaid"`
	IsDelivered      bool                   `gorm:"column:is_delivered;not null;default:false" json:"isDelivered"`
	CancelReason     *string                `gorm:"column:cancel_reason" json:"cancelReason,omitempty"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
