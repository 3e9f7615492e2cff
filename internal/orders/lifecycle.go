package orders

import (
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// applyStatus moves order to status and stamps the matching timestamp.
// Any known status may follow any other.
func applyStatus(order *models.Order, status enums.OrderStatus, now time.Time) {
	order.OrderStatus = status
	ts := &order.StatusTimestamps
	at := now
	switch status {
	case enums.OrderStatusProcessing:
		ts.ProcessedAt = &at
	case enums.OrderStatusShipped:
		ts.ShippedAt = &at
	case enums.OrderStatusOutForDelivery:
		ts.OutForDeliveryAt = &at
	case enums.OrderStatusDelivered:
		ts.DeliveredAt = &at
		order.IsDelivered = true
	case enums.OrderStatusCancelled:
		ts.CancelledAt = &at
	case enums.OrderStatusReturnAccepted:
		ts.ReturnAcceptedAt = &at
	case enums.OrderStatusReturned:
		ts.ReturnedAt = &at
	case enums.OrderStatusRefundAccepted:
		ts.RefundAcceptedAt = &at
	case enums.OrderStatusRefunded:
		ts.RefundedAt = &at
	}
}

// applyPaid toggles isPaid. Marking a cash-on-delivery order paid completes its payment.
func applyPaid(order *models.Order, paid bool, now time.Time) {
	order.IsPaid = paid
	if paid && order.PaymentInfo.Method == enums.PaymentMethodCOD {
		at := now
		order.PaymentInfo.Status = enums.PaymentStatusCompleted
		order.PaymentInfo.PaidAt = &at
	}
}
