package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/pricing"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/razorpay"
)

const (
	msgMissingParams    = "Missing required Razorpay parameters"
	msgInvalidSignature = "Payment verification failed: Invalid signature"
	msgGatewayFailed    = "Failed to create Razorpay order"
	msgOrderNotFound    = "Order not found"
)

type gateway interface {
	KeyID() string
	Currency() string
	CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type verificationRecorder interface {
	PaymentVerified(ok bool)
}

// VerifyRequest is the gateway callback body.
type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// VerifyResult names the verified payment and where to send the shopper.
type VerifyResult struct {
	Success     bool   `json:"success"`
	Reference   string `json:"reference"`
	RedirectURL string `json:"-"`
}

// ProcessResult wraps the gateway order handed to the checkout widget.
type ProcessResult struct {
	Success bool            `json:"success"`
	Order   *razorpay.Order `json:"order"`
}

// Service exposes the Razorpay checkout flow.
type Service interface {
	Key() string
	Process(ctx context.Context, amount float64) (*ProcessResult, error)
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

type ServiceParams struct {
	Gateway     gateway
	Orders      orders.Repository
	Tx          txRunner
	Outbox      outboxPublisher
	Carts       func(tx *gorm.DB) orders.CartClearer
	Metrics     verificationRecorder
	FrontendURL string
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	gateway     gateway
	orders      orders.Repository
	tx          txRunner
	outbox      outboxPublisher
	carts       func(tx *gorm.DB) orders.CartClearer
	metrics     verificationRecorder
	frontendURL string
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		gateway:     params.Gateway,
		orders:      params.Orders,
		tx:          params.Tx,
		outbox:      params.Outbox,
		carts:       params.Carts,
		metrics:     params.Metrics,
		frontendURL: strings.TrimRight(params.FrontendURL, "/"),
		logg:        logg,
		now:         now,
	}, nil
}

func (s *service) Key() string {
	return s.gateway.KeyID()
}

// Process opens a gateway order for amount rupees, auto-captured.
func (s *service) Process(ctx context.Context, amount float64) (*ProcessResult, error) {
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	order, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
		Amount:         pricing.ToSubunits(amount),
		Currency:       s.gateway.Currency(),
		Receipt:        fmt.Sprintf("receipt_%d", s.now().UnixMilli()),
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgGatewayFailed)
	}
	return &ProcessResult{Success: true, Order: order}, nil
}

// Verify checks the callback signature and, only when it matches, marks the
// referenced order paid and clears its owner's cart.
func (s *service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	orderRef := strings.TrimSpace(req.RazorpayOrderID)
	paymentID := strings.TrimSpace(req.RazorpayPaymentID)
	signature := strings.TrimSpace(req.RazorpaySignature)
	if orderRef == "" || paymentID == "" || signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgMissingParams)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"razorpay_order_id":   orderRef,
		"razorpay_payment_id": paymentID,
	})
	if !s.gateway.VerifyPaymentSignature(orderRef, paymentID, signature) {
		s.record(false)
		s.logg.Warn(ctx, "payment signature rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidSignature)
	}

	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.LockByRazorpayOrderID(ctx, orderRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		paidAt := now
		order.PaymentInfo.Status = enums.PaymentStatusCompleted
		order.PaymentInfo.PaidAt = &paidAt
		order.PaymentInfo.RazorpayPaymentID = &paymentID
		order.PaymentInfo.RazorpaySignature = &signature
		order.IsPaid = true
		if err := repo.SaveLifecycle(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment")
		}
		if err := s.carts(tx).ClearForUser(ctx, order.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentVerified,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data: outbox.PaymentVerifiedEvent{
				OrderID:           order.ID,
				RazorpayOrderID:   orderRef,
				RazorpayPaymentID: paymentID,
				PaidAt:            now,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify payment")
		}
		return nil, err
	}

	s.record(true)
	s.logg.Info(ctx, "payment verified")
	return &VerifyResult{
		Success:     true,
		Reference:   paymentID,
		RedirectURL: s.frontendURL + "/paymentSuccess?reference=" + url.QueryEscape(paymentID),
	}, nil
}

func (s *service) record(ok bool) {
	if s.metrics != nil {
		s.metrics.PaymentVerified(ok)
	}
}
